package integration

import (
	"strings"

	"github.com/Additional-Code/sistemact/internal/entity"
)

// ClassifyDispatch maps a shipping label onto a dispatch point.
// Rules are checked in order and the first match wins.
func ClassifyDispatch(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "":
		return entity.DispatchCoordinate
	case strings.Contains(l, "flex"):
		return entity.DispatchFlex
	case strings.Contains(l, "retiro"), strings.Contains(l, "sucursal"):
		return entity.DispatchPickupPoint
	case strings.Contains(l, "coordinar"):
		return entity.DispatchCoordinate
	default:
		return entity.DispatchPickupPoint
	}
}
