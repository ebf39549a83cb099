package spatial

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/wegman-software/osmgraph-go/internal/config"
)

// NewLocator builds the endpoint locator selected by mode
func NewLocator(mode string, grid *Grid, positions []r2.Point, rings int) (Locator, error) {
	switch mode {
	case config.SnapCell, "":
		return grid, nil
	case config.SnapRing:
		return Ring{Grid: grid, Rings: rings}, nil
	case config.SnapRTree:
		return NewTree(positions), nil
	}
	return nil, fmt.Errorf("unknown snap mode: %s", mode)
}
