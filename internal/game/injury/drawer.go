package injury

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
)

// Drawer draws an injury for a target that has just taken wounds and publishes
// the result as its own report line.
type Drawer struct {
	tables    *Registry
	roller    Roller
	publisher report.Publisher
	logger    *zap.Logger
}

// NewDrawer creates a Drawer.
//
// Precondition: all arguments must be non-nil.
func NewDrawer(tables *Registry, roller Roller, publisher report.Publisher, logger *zap.Logger) *Drawer {
	return &Drawer{tables: tables, roller: roller, publisher: publisher, logger: logger}
}

// DrawInjury draws from tableID for target and publishes the injury report.
func (d *Drawer) DrawInjury(ctx context.Context, eventID string, target *entity.Entity, tableID string) error {
	res, err := d.tables.Draw(tableID, d.roller)
	if err != nil {
		return fmt.Errorf("drawing injury for %q: %w", target.ID, err)
	}
	d.logger.Info("injury drawn",
		zap.String("target", string(target.ID)),
		zap.String("table", res.Table),
		zap.Int("roll", res.Roll),
		zap.String("result", res.Text),
	)
	r := report.New(report.Report{
		EventID:    eventID,
		Kind:       report.KindInjury,
		Target:     target.ID,
		TargetName: target.Name,
		Injury:     res.Text,
	})
	return d.publisher.Publish(ctx, r)
}
