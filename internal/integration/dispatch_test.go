package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/sistemact/internal/entity"
)

func TestClassifyDispatch(t *testing.T) {
	cases := map[string]string{
		"Flex Envio":             entity.DispatchFlex,
		"Mercado Envíos Flex":    entity.DispatchFlex,
		"":                       entity.DispatchCoordinate,
		"   ":                    entity.DispatchCoordinate,
		"Retiro en sucursal":     entity.DispatchPickupPoint,
		"Sucursal Correo":        entity.DispatchPickupPoint,
		"Coordinar con vendedor": entity.DispatchCoordinate,
		"Otro método":            entity.DispatchPickupPoint,
		"FLEX retiro":            entity.DispatchFlex,
	}
	for label, want := range cases {
		assert.Equal(t, want, ClassifyDispatch(label), "label %q", label)
	}
}
