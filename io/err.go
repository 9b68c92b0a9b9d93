package io

import (
	"errors"

	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrQueueEmpty    = errors.New(f("input queue empty"))
	ErrSourceMissing = errors.New(f("no line source"))
	ErrOutputMissing = errors.New(f("no output"))
)
