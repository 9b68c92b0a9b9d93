// Package translate formats user visible text in the language of the
// current user.
package translate

import (
	"sync"

	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

// DefaultLocale is used when the system does not report one.
const DefaultLocale = "en-US"

var (
	once    sync.Once
	printer *message.Printer
)

func setup() {
	locales, err := locale.GetLocales()
	if err != nil {
		logrus.WithField("tag", "translate").Debugf("locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{DefaultLocale}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	once.Do(setup)
	return printer.Sprintf(key, args...)
}
