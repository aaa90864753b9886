package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/quoteworks/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func setupSQLiteDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, nil, gormlogger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(context.Background()))
	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type seeded struct {
	seed       Seed
	productID  uuid.UUID
	categoryID uuid.UUID
	optionID   uuid.UUID
	projectID  uuid.UUID
}

func sampleSeed() seeded {
	part := &catalog.MasterPart{
		BaseEntity:    shared.NewBaseEntity(),
		PartNumber:    "E-100",
		Description:   "Jamb",
		PartType:      catalog.PartTypeExtrusion,
		UnitOfMeasure: catalog.UnitLinearFoot,
		UnitCost:      decimal.Zero,
		WeightPerFoot: d("0.75"),
		Perimeter:     d("6"),
	}
	part.StockLengthRules = []catalog.StockLengthRule{
		{BaseEntity: shared.NewBaseEntity(), SortOrder: 2, StockLength: d("288"), BasePrice: decimal.NewNullDecimal(d("48")), IsActive: true},
		{BaseEntity: shared.NewBaseEntity(), SortOrder: 1, StockLength: d("120"), BasePrice: decimal.NewNullDecimal(d("20")), IsActive: false,
			MaxHeight: decimal.NewNullDecimal(d("96"))},
	}
	part.PricingRule = &catalog.PricingRule{BaseEntity: shared.NewBaseEntity(), Formula: "height * 2"}

	product := &catalog.Product{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        "Swing Door",
		ProductType: catalog.ProductTypeDoorLeaf,
	}
	category := &catalog.OptionCategory{BaseEntity: shared.NewBaseEntity(), Name: "Handle"}
	option := catalog.IndividualOption{
		BaseEntity: shared.NewBaseEntity(),
		Name:       "Premium",
		PartNumber: "HW-PREM",
		Price:      decimal.NewNullDecimal(d("120")),
	}
	variant := catalog.OptionVariant{BaseEntity: shared.NewBaseEntity(), Name: "Black", IsDefault: true}
	option.Variants = []catalog.OptionVariant{variant}
	option.LinkedParts = []catalog.LinkedPart{
		{BaseEntity: shared.NewBaseEntity(), PartNumber: "ROSE-BK", Quantity: d("1"), VariantID: &variant.ID},
	}
	category.Options = []catalog.IndividualOption{option}

	product.BOMLines = []catalog.BOMLine{
		{BaseEntity: shared.NewBaseEntity(), SortOrder: 2, PartType: catalog.PartTypeHardware, PartNumber: "H-1", Quantity: d("3"), QuantityMode: catalog.QuantityModeFixed},
		{BaseEntity: shared.NewBaseEntity(), SortOrder: 1, PartType: catalog.PartTypeExtrusion, PartNumber: "E-100", Formula: "height", Quantity: d("2"), QuantityMode: catalog.QuantityModeFixed},
	}
	product.Categories = []catalog.ProductCategory{
		{BaseEntity: shared.NewBaseEntity(), CategoryID: category.ID, StandardOptionID: &option.ID},
	}

	mode := &project.PricingMode{
		BaseEntity:      shared.NewBaseEntity(),
		Name:            "Retail",
		ExtrusionMarkup: decimal.NewNullDecimal(d("50")),
		Discount:        decimal.Zero,
	}

	p, _ := project.NewProject("Smith Residence")
	p.PricingModeID = &mode.ID
	p.ExcludedPartNumbers = project.StringList{"E-200"}
	p.TaxRate = d("0.0825")
	sel := project.NewSelections()
	sel.Options[category.ID] = option.ID
	sel.Variants[option.ID] = variant.ID
	p.Openings = []project.Opening{
		{BaseEntity: shared.NewBaseEntity(), SortOrder: 2, Name: "Rear", FinishColor: "Mill"},
		{
			BaseEntity: shared.NewBaseEntity(), SortOrder: 1, Name: "Front Entry", FinishColor: "Bronze",
			Panels: []project.Panel{{
				BaseEntity: shared.NewBaseEntity(), Name: "Leaf", Width: d("36"), Height: d("80"), GlassType: "Clear",
				Components: []project.ComponentInstance{{BaseEntity: shared.NewBaseEntity(), ProductID: product.ID, Selections: sel}},
			}},
		},
	}

	return seeded{
		seed: Seed{
			Parts:        []*catalog.MasterPart{part},
			Products:     []*catalog.Product{product},
			Categories:   []*catalog.OptionCategory{category},
			Finishes:     []*catalog.FinishType{{BaseEntity: shared.NewBaseEntity(), Name: "Bronze", FinishCode: "BR", PricePerSqFt: d("2.5")}},
			GlassTypes:   []*catalog.GlassType{{BaseEntity: shared.NewBaseEntity(), Name: "Clear", PricePerSqFt: d("10")}},
			Settings:     &catalog.PricingSettings{BaseEntity: shared.NewBaseEntity(), PricePerPound: decimal.NewNullDecimal(d("3.5"))},
			PricingModes: []*project.PricingMode{mode},
			Projects:     []*project.Project{p},
		},
		productID:  product.ID,
		categoryID: category.ID,
		optionID:   option.ID,
		projectID:  p.ID,
	}
}

func TestDatabase_Seed(t *testing.T) {
	db := setupSQLiteDatabase(t)
	s := sampleSeed()

	counts, err := db.Seed(context.Background(), s.seed)
	require.NoError(t, err)
	assert.Equal(t, SeedCounts{Parts: 1, Products: 1, Categories: 1, Projects: 1}, counts)

	t.Run("seeding twice replaces the project tree", func(t *testing.T) {
		_, err := db.Seed(context.Background(), Seed{Projects: s.seed.Projects})
		require.NoError(t, err)

		var openings int64
		require.NoError(t, db.DB.Model(&project.Opening{}).Where("project_id = ?", s.projectID).Count(&openings).Error)
		assert.Equal(t, int64(2), openings)
	})
}

func TestDatabase_StatusAndDropAll(t *testing.T) {
	db := setupSQLiteDatabase(t)
	ctx := context.Background()
	_, err := db.Seed(ctx, sampleSeed().seed)
	require.NoError(t, err)

	status, err := db.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, len(Models()))
	rows := make(map[string]int64, len(status))
	for _, st := range status {
		assert.True(t, st.Exists, st.Table)
		rows[st.Table] = st.Rows
	}
	assert.Equal(t, int64(1), rows["master_parts"])
	assert.Equal(t, int64(2), rows["openings"])

	require.NoError(t, db.DropAll(ctx))
	status, err = db.Status(ctx)
	require.NoError(t, err)
	for _, st := range status {
		assert.False(t, st.Exists, st.Table)
		assert.Zero(t, st.Rows)
	}
}

func TestGormCatalogRepository(t *testing.T) {
	db := setupSQLiteDatabase(t)
	s := sampleSeed()
	_, err := db.Seed(context.Background(), s.seed)
	require.NoError(t, err)

	repo := NewGormCatalogRepository(db.DB)
	ctx := context.Background()

	t.Run("FindMasterPart preloads rules in sort order", func(t *testing.T) {
		part, err := repo.FindMasterPart(ctx, "E-100")
		require.NoError(t, err)
		require.Len(t, part.StockLengthRules, 2)
		assert.True(t, part.StockLengthRules[0].StockLength.Equal(d("120")))
		assert.False(t, part.StockLengthRules[0].IsActive)
		assert.True(t, part.StockLengthRules[0].MaxHeight.Valid)
		assert.True(t, part.StockLengthRules[1].BasePrice.Decimal.Equal(d("48")))
		require.NotNil(t, part.PricingRule)
		assert.Equal(t, "height * 2", part.PricingRule.Formula)
		assert.Len(t, part.ActiveStockLengthRules(), 1)
	})

	t.Run("FindMasterPart missing part", func(t *testing.T) {
		_, err := repo.FindMasterPart(ctx, "NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindProduct preloads lines and categories", func(t *testing.T) {
		product, err := repo.FindProduct(ctx, s.productID)
		require.NoError(t, err)
		require.Len(t, product.BOMLines, 2)
		assert.Equal(t, "E-100", product.BOMLines[0].PartNumber)
		assert.Equal(t, "H-1", product.BOMLines[1].PartNumber)
		require.Len(t, product.Categories, 1)
		assert.Equal(t, s.categoryID, product.Categories[0].CategoryID)
		require.NotNil(t, product.Categories[0].StandardOptionID)
		assert.Equal(t, s.optionID, *product.Categories[0].StandardOptionID)
	})

	t.Run("FindOptionCategory preloads options with parts and variants", func(t *testing.T) {
		category, err := repo.FindOptionCategory(ctx, s.categoryID)
		require.NoError(t, err)
		opt, ok := category.Option(s.optionID)
		require.True(t, ok)
		assert.True(t, opt.Price.Decimal.Equal(d("120")))
		require.Len(t, opt.Variants, 1)
		require.Len(t, opt.LinkedParts, 1)
		variant, ok := opt.DefaultVariant()
		require.True(t, ok)
		assert.Len(t, opt.LinkedPartsFor(&variant), 1)
	})

	t.Run("FindOptionCategory missing category", func(t *testing.T) {
		_, err := repo.FindOptionCategory(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finish and glass lookups ignore case", func(t *testing.T) {
		finish, err := repo.FindFinishType(ctx, "  bronze ")
		require.NoError(t, err)
		assert.Equal(t, "BR", finish.FinishCode)

		glass, err := repo.FindGlassType(ctx, "CLEAR")
		require.NoError(t, err)
		assert.True(t, glass.PricePerSqFt.Equal(d("10")))

		_, err = repo.FindGlassType(ctx, "Tinted")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("GetPricingSettings", func(t *testing.T) {
		settings, err := repo.GetPricingSettings(ctx)
		require.NoError(t, err)
		assert.True(t, settings.PricePerPound.Decimal.Equal(d("3.5")))
	})
}

func TestGormCatalogRepository_NoSettings(t *testing.T) {
	db := setupSQLiteDatabase(t)
	_, err := NewGormCatalogRepository(db.DB).GetPricingSettings(context.Background())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProjectRepository(t *testing.T) {
	db := setupSQLiteDatabase(t)
	s := sampleSeed()
	_, err := db.Seed(context.Background(), s.seed)
	require.NoError(t, err)

	repo := NewGormProjectRepository(db.DB)
	ctx := context.Background()

	t.Run("FindByID loads the whole tree", func(t *testing.T) {
		p, err := repo.FindByID(ctx, s.projectID)
		require.NoError(t, err)

		assert.Equal(t, "Smith Residence", p.Name)
		assert.True(t, p.TaxRate.Equal(d("0.0825")))
		assert.Equal(t, project.StringList{"E-200"}, p.ExcludedPartNumbers)
		require.NotNil(t, p.PricingMode)
		assert.Equal(t, "Retail", p.PricingMode.Name)

		require.Len(t, p.Openings, 2)
		assert.Equal(t, "Front Entry", p.Openings[0].Name)
		assert.Equal(t, "Rear", p.Openings[1].Name)
		require.Len(t, p.Openings[0].Panels, 1)
		require.Len(t, p.Openings[0].Panels[0].Components, 1)

		sel := p.Openings[0].Panels[0].Components[0].Selections
		opt, ok := sel.Option(s.categoryID)
		require.True(t, ok)
		assert.Equal(t, s.optionID, opt)
	})

	t.Run("FindByID missing project", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindAll", func(t *testing.T) {
		projects, err := repo.FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Empty(t, projects[0].Openings)

		second, err := project.NewProject("Annex")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, second))

		projects, err = repo.FindAll(ctx, shared.Filter{OrderBy: "name; DROP TABLE projects", OrderDir: "asc"})
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, "Annex", projects[0].Name)

		projects, err = repo.FindAll(ctx, shared.Filter{Search: "ANN"})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, second.ID, projects[0].ID)

		projects, err = repo.FindAll(ctx, shared.Filter{OrderBy: "name", OrderDir: "asc", Page: 2, PageSize: 1})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.NotEqual(t, "Annex", projects[0].Name)
	})

	t.Run("Save rejects invalid project", func(t *testing.T) {
		bad, _ := project.NewProject("Bad")
		bad.TaxRate = d("2")
		assert.ErrorIs(t, repo.Save(ctx, bad), shared.ErrInvalidInput)
	})
}
