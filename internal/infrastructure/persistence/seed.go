package persistence

import (
	"context"
	"fmt"

	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/project"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed is a catalog and project snapshot loaded into the database in one transaction
type Seed struct {
	Parts        []*catalog.MasterPart
	Products     []*catalog.Product
	Categories   []*catalog.OptionCategory
	Finishes     []*catalog.FinishType
	GlassTypes   []*catalog.GlassType
	Settings     *catalog.PricingSettings
	PricingModes []*project.PricingMode
	Projects     []*project.Project
}

// SeedCounts reports how many top-level records were written
type SeedCounts struct {
	Parts      int
	Products   int
	Categories int
	Projects   int
}

// Seed upserts the snapshot. Top-level records are matched by primary key
// and their child rows are created alongside them.
func (d *Database) Seed(ctx context.Context, s Seed) (SeedCounts, error) {
	var counts SeedCounts
	err := d.Transaction(ctx, func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})

		for _, p := range s.Parts {
			if err := upsert.Create(p).Error; err != nil {
				return fmt.Errorf("seeding part %s: %w", p.PartNumber, err)
			}
		}
		for _, p := range s.Products {
			if err := upsert.Create(p).Error; err != nil {
				return fmt.Errorf("seeding product %s: %w", p.Name, err)
			}
		}
		for _, c := range s.Categories {
			if err := upsert.Create(c).Error; err != nil {
				return fmt.Errorf("seeding option category %s: %w", c.Name, err)
			}
		}
		for _, f := range s.Finishes {
			if err := upsert.Create(f).Error; err != nil {
				return fmt.Errorf("seeding finish %s: %w", f.Name, err)
			}
		}
		for _, g := range s.GlassTypes {
			if err := upsert.Create(g).Error; err != nil {
				return fmt.Errorf("seeding glass type %s: %w", g.Name, err)
			}
		}
		if s.Settings != nil {
			if err := upsert.Create(s.Settings).Error; err != nil {
				return fmt.Errorf("seeding pricing settings: %w", err)
			}
		}
		for _, m := range s.PricingModes {
			if err := upsert.Create(m).Error; err != nil {
				return fmt.Errorf("seeding pricing mode %s: %w", m.Name, err)
			}
		}

		projects := NewGormProjectRepository(tx)
		for _, p := range s.Projects {
			if err := projects.Save(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}

	counts.Parts = len(s.Parts)
	counts.Products = len(s.Products)
	counts.Categories = len(s.Categories)
	counts.Projects = len(s.Projects)
	return counts, nil
}
