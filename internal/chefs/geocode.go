package chefs

import (
	"fmt"
	"strings"

	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/maps"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// kitchenAddressFromPlace maps resolved place details onto the kitchen
// address. Dispatch needs a routable point, so a place without coordinates
// is rejected outright.
func kitchenAddressFromPlace(details *maps.PlaceDetails, unit *string) (types.Address, error) {
	if details == nil {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "place details missing")
	}
	if details.Location.Latitude == 0 && details.Location.Longitude == 0 {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "place location missing")
	}

	find := func(kind string) (string, bool) {
		for _, comp := range details.AddressComponents {
			for _, typ := range comp.Types {
				if typ == kind && comp.LongName != "" {
					return comp.LongName, true
				}
			}
		}
		return "", false
	}

	line1 := ""
	if number, ok := find("street_number"); ok {
		line1 = number
	}
	if route, ok := find("route"); ok {
		if line1 != "" {
			line1 = fmt.Sprintf("%s %s", line1, route)
		} else {
			line1 = route
		}
	}
	if line1 == "" && strings.TrimSpace(details.FormattedAddress) != "" {
		parts := strings.Split(details.FormattedAddress, ",")
		line1 = strings.TrimSpace(parts[0])
	}
	if line1 == "" {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "address line1 missing")
	}

	line2 := unit
	if line2 == nil {
		if sub, ok := find("subpremise"); ok {
			value := sub
			line2 = &value
		}
	}

	city, ok := find("locality")
	if !ok {
		if town, ok2 := find("postal_town"); ok2 {
			city = town
		} else if lga, ok3 := find("administrative_area_level_2"); ok3 {
			city = lga
		}
	}
	if city == "" {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "city missing")
	}

	state, ok := find("administrative_area_level_1")
	if !ok {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "state missing")
	}

	postalCode, ok := find("postal_code")
	if !ok {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "postal code missing")
	}

	country, ok := find("country")
	if !ok {
		country = "NG"
	}

	return types.Address{
		Line1:      line1,
		Line2:      line2,
		City:       city,
		State:      state,
		PostalCode: postalCode,
		Country:    country,
		Lat:        details.Location.Latitude,
		Lng:        details.Location.Longitude,
	}, nil
}
