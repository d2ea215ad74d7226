package integrations

import (
	"go.uber.org/zap"

	untappdweb "droscher.com/SipGargoyle/pkg/integrations/untappd-web"
)

// DrinkInfo is what a product lookup can contribute to a new entry:
// a canonical name and, when known, the alcohol content by volume.
type DrinkInfo = untappdweb.DrinkInfo

type Integration interface {
	FindDrink(name string) ([]DrinkInfo, error)
}

func GetIntegration(name string, logger *zap.Logger) Integration {
	if name == untappdweb.IntegrationName {
		return untappdweb.NewUntappedWebIntegration(logger)
	}

	return nil
}
