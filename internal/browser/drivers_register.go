package browser

import "github.com/raysh454/pagecheck/internal/logging"

func init() {
	RegisterDefaultDrivers()
}

// RegisterDefaultDrivers registers the chromedp, rod and playwright backends.
func RegisterDefaultDrivers() {
	RegisterDriver("chromedp", func(logger logging.Logger) (Driver, error) {
		return NewChromedpDriver(logger), nil
	})

	RegisterDriver("rod", func(logger logging.Logger) (Driver, error) {
		return NewRodDriver(logger), nil
	})

	RegisterDriver("playwright", func(logger logging.Logger) (Driver, error) {
		return NewPlaywrightDriver(logger), nil
	})
}
