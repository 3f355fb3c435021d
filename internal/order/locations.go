package order

import "github.com/shaiso/Flotilla/internal/domain"

// Таблица именованных локаций карты.
//
// Локации соответствуют разметке производственной площадки; имена
// используются как аргументы заказов ("transport storage assembly").
// TODO: загружать таблицу из конфигурации площадки вместо констант.
var locations = map[string]domain.Location{
	"storage":  {Name: "storage", Pose: domain.Pose{X: -3.0, Y: 4.5, Theta: 0}},
	"assembly": {Name: "assembly", Pose: domain.Pose{X: 6.2, Y: 1.8, Theta: 1.57}},
	"inbound":  {Name: "inbound", Pose: domain.Pose{X: -8.4, Y: -2.0, Theta: 3.14}},
	"outbound": {Name: "outbound", Pose: domain.Pose{X: 9.0, Y: -5.5, Theta: -1.57}},
	"charging": {Name: "charging", Pose: domain.Pose{X: 0.0, Y: -7.0, Theta: 0}},
}

// LookupLocation возвращает локацию по имени.
func LookupLocation(name string) (domain.Location, bool) {
	loc, ok := locations[name]
	return loc, ok
}

// Locations возвращает список известных локаций.
func Locations() []domain.Location {
	out := make([]domain.Location, 0, len(locations))
	for _, loc := range locations {
		out = append(out, loc)
	}
	return out
}
