package fixture

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// namespace seeds the name-based ids so a workbook maps to the same rows on every load
var namespace = uuid.MustParse("6f1c4a52-93d8-4c1e-b0a7-2f5e8d3c9b14")

// ID returns the stable id of a workbook record
func ID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key))
}

// ProjectID returns the id of the project with the given workbook key
func ProjectID(key string) uuid.UUID {
	return ID("project", key)
}

type builder struct {
	now        time.Time
	store      *Store
	categories map[string]*catalog.OptionCategory
	options    map[string]uuid.UUID // "<category>/<option>"
	variants   map[string]uuid.UUID // "<category>/<option>/<variant>"
	products   map[string]uuid.UUID
	modes      map[string]*project.PricingMode
}

func (b *builder) entity(kind, key string) shared.BaseEntity {
	return shared.BaseEntity{ID: ID(kind, key), CreatedAt: b.now, UpdatedAt: b.now}
}

// Build resolves workbook keys into catalog and project entities
func Build(wb *Workbook) (*Store, error) {
	b := &builder{
		now:        time.Now(),
		store:      newStore(),
		categories: make(map[string]*catalog.OptionCategory),
		options:    make(map[string]uuid.UUID),
		variants:   make(map[string]uuid.UUID),
		products:   make(map[string]uuid.UUID),
		modes:      make(map[string]*project.PricingMode),
	}

	if wb.Settings != nil {
		b.store.settings = &catalog.PricingSettings{
			BaseEntity:    b.entity("settings", "default"),
			PricePerPound: nullable(wb.Settings.PricePerPound),
		}
	}
	for i := range wb.Parts {
		if err := b.part(&wb.Parts[i]); err != nil {
			return nil, err
		}
	}
	for _, f := range wb.Finishes {
		if err := b.store.addFinish(&catalog.FinishType{
			BaseEntity:   b.entity("finish", strings.ToLower(f.Name)),
			Name:         strings.TrimSpace(f.Name),
			FinishCode:   strings.TrimSpace(f.Code),
			PricePerSqFt: f.PricePerSqFt,
		}); err != nil {
			return nil, err
		}
	}
	for _, g := range wb.GlassTypes {
		if err := b.store.addGlass(&catalog.GlassType{
			BaseEntity:   b.entity("glass", strings.ToLower(g.Name)),
			Name:         strings.TrimSpace(g.Name),
			PricePerSqFt: g.PricePerSqFt,
		}); err != nil {
			return nil, err
		}
	}
	for i := range wb.Categories {
		if err := b.category(&wb.Categories[i]); err != nil {
			return nil, err
		}
	}
	for i := range wb.Products {
		if err := b.product(&wb.Products[i]); err != nil {
			return nil, err
		}
	}
	for i := range wb.PricingModes {
		if err := b.pricingMode(&wb.PricingModes[i]); err != nil {
			return nil, err
		}
	}
	for i := range wb.Projects {
		if err := b.project(&wb.Projects[i]); err != nil {
			return nil, err
		}
	}
	return b.store, nil
}

func (b *builder) part(doc *PartDoc) error {
	pn := strings.TrimSpace(doc.PartNumber)
	uom := catalog.UnitOfMeasure(doc.UnitOfMeasure)
	if uom == "" {
		uom = catalog.UnitEach
	}
	part := &catalog.MasterPart{
		BaseEntity:                  b.entity("part", pn),
		PartNumber:                  pn,
		Description:                 doc.Description,
		PartType:                    catalog.PartType(doc.Type),
		UnitCost:                    doc.UnitCost,
		UnitOfMeasure:               uom,
		WeightPerFoot:               doc.WeightPerFoot,
		CustomPricePerLb:            nullable(doc.CustomPricePerLb),
		Perimeter:                   doc.Perimeter,
		IsMillFinish:                doc.MillFinish,
		AppendDirectionToPartNumber: doc.AppendDirection,
	}
	for i, sl := range doc.StockLengths {
		part.StockLengthRules = append(part.StockLengthRules, catalog.StockLengthRule{
			BaseEntity:   b.entity("stock_length", pn+"#"+strconv.Itoa(i)),
			MasterPartID: part.ID,
			SortOrder:    i,
			StockLength:  sl.Length,
			MinWidth:     nullable(sl.MinWidth),
			MaxWidth:     nullable(sl.MaxWidth),
			MinHeight:    nullable(sl.MinHeight),
			MaxHeight:    nullable(sl.MaxHeight),
			BasePrice:    nullable(sl.Price),
			IsActive:     !sl.Inactive,
		})
	}
	if doc.Formula != "" || doc.BasePrice != nil {
		part.PricingRule = &catalog.PricingRule{
			BaseEntity:   b.entity("pricing_rule", pn),
			MasterPartID: part.ID,
			BasePrice:    nullable(doc.BasePrice),
			Formula:      doc.Formula,
		}
	}
	if err := part.Validate(); err != nil {
		return err
	}
	return b.store.addPart(part)
}

func (b *builder) category(doc *CategoryDoc) error {
	if _, ok := b.categories[doc.Key]; ok {
		return fmt.Errorf("%w: option category %q defined twice", shared.ErrAlreadyExists, doc.Key)
	}
	cat := &catalog.OptionCategory{BaseEntity: b.entity("category", doc.Key), Name: doc.Name}
	for i, o := range doc.Options {
		path := doc.Key + "/" + o.Key
		opt := catalog.IndividualOption{
			BaseEntity:    b.entity("option", path),
			CategoryID:    cat.ID,
			SortOrder:     i,
			Name:          o.Name,
			PartNumber:    strings.TrimSpace(o.PartNumber),
			Price:         nullable(o.Price),
			IsCutListItem: o.CutListItem,
		}
		for _, v := range o.Variants {
			vpath := path + "/" + v.Key
			if _, ok := b.variants[vpath]; ok {
				return fmt.Errorf("%w: variant %q defined twice", shared.ErrAlreadyExists, vpath)
			}
			variant := catalog.OptionVariant{
				BaseEntity: b.entity("variant", vpath),
				OptionID:   opt.ID,
				Name:       v.Name,
				IsDefault:  v.Default,
			}
			b.variants[vpath] = variant.ID
			opt.Variants = append(opt.Variants, variant)
		}
		for j, lp := range o.LinkedParts {
			linked := catalog.LinkedPart{
				BaseEntity: b.entity("linked_part", path+"#"+strconv.Itoa(j)),
				OptionID:   opt.ID,
				PartNumber: strings.TrimSpace(lp.PartNumber),
				Quantity:   valueOr(lp.Quantity, decimal.NewFromInt(1)),
			}
			if lp.Variant != "" {
				id, ok := b.variants[path+"/"+lp.Variant]
				if !ok {
					return fmt.Errorf("%w: linked part %s references unknown variant %q of %s", shared.ErrInvalidInput, lp.PartNumber, lp.Variant, path)
				}
				linked.VariantID = &id
			}
			opt.LinkedParts = append(opt.LinkedParts, linked)
		}
		if _, ok := b.options[path]; ok {
			return fmt.Errorf("%w: option %q defined twice", shared.ErrAlreadyExists, path)
		}
		cat.Options = append(cat.Options, opt)
		b.options[path] = opt.ID
	}
	b.categories[doc.Key] = cat
	b.store.addCategory(cat)
	return nil
}

func (b *builder) optionID(ref string) (uuid.UUID, error) {
	id, ok := b.options[ref]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: unknown option %q", shared.ErrInvalidInput, ref)
	}
	return id, nil
}

func (b *builder) product(doc *ProductDoc) error {
	if _, ok := b.products[doc.Key]; ok {
		return fmt.Errorf("%w: product %q defined twice", shared.ErrAlreadyExists, doc.Key)
	}
	p := &catalog.Product{
		BaseEntity:        b.entity("product", doc.Key),
		Name:              doc.Name,
		ProductType:       catalog.ProductType(doc.Type),
		InstallationPrice: doc.InstallationPrice,
	}
	if doc.Glass != nil {
		p.GlassWidthFormula = doc.Glass.Width
		p.GlassHeightFormula = doc.Glass.Height
		p.GlassQuantityFormula = doc.Glass.Quantity
	}
	for i, l := range doc.BOM {
		mode := catalog.QuantityMode(l.Mode)
		if mode == "" {
			mode = catalog.QuantityModeFixed
		}
		line := catalog.BOMLine{
			BaseEntity:            b.entity("bom_line", doc.Key+"#"+strconv.Itoa(i)),
			ProductID:             p.ID,
			SortOrder:             i,
			PartType:              catalog.PartType(l.Type),
			PartNumber:            strings.TrimSpace(l.PartNumber),
			Description:           l.Description,
			Formula:               l.Formula,
			Quantity:              valueOr(l.Quantity, decimal.NewFromInt(1)),
			QuantityMode:          mode,
			MinQuantity:           nullable(l.Min),
			DefaultQuantity:       nullable(l.Default),
			IsMilled:              l.Milled,
			AddFinishToPartNumber: l.AddFinish,
		}
		if l.Option != "" {
			id, err := b.optionID(l.Option)
			if err != nil {
				return fmt.Errorf("product %s line %d: %w", doc.Key, i+1, err)
			}
			line.OptionID = &id
		}
		p.BOMLines = append(p.BOMLines, line)
	}
	for i, bind := range doc.Categories {
		cat, ok := b.categories[bind.Category]
		if !ok {
			return fmt.Errorf("%w: product %s binds unknown option category %q", shared.ErrInvalidInput, doc.Key, bind.Category)
		}
		pc := catalog.ProductCategory{
			BaseEntity: b.entity("product_category", doc.Key+"/"+bind.Category),
			ProductID:  p.ID,
			CategoryID: cat.ID,
			SortOrder:  i,
		}
		if bind.Standard != "" {
			id, err := b.optionID(bind.Category + "/" + bind.Standard)
			if err != nil {
				return fmt.Errorf("product %s: %w", doc.Key, err)
			}
			pc.StandardOptionID = &id
		}
		p.Categories = append(p.Categories, pc)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	b.products[doc.Key] = p.ID
	b.store.addProduct(p)
	return nil
}

func (b *builder) pricingMode(doc *PricingModeDoc) error {
	if _, ok := b.modes[doc.Key]; ok {
		return fmt.Errorf("%w: pricing mode %q defined twice", shared.ErrAlreadyExists, doc.Key)
	}
	m := &project.PricingMode{
		BaseEntity:      b.entity("pricing_mode", doc.Key),
		Name:            doc.Name,
		ExtrusionMarkup: nullable(doc.Extrusion),
		HardwareMarkup:  nullable(doc.Hardware),
		GlassMarkup:     nullable(doc.Glass),
		PackagingMarkup: nullable(doc.Packaging),
		GlobalMarkup:    nullable(doc.Global),
		Discount:        doc.Discount,
	}
	if err := m.Validate(); err != nil {
		return err
	}
	b.modes[doc.Key] = m
	b.store.modes = append(b.store.modes, m)
	return nil
}

func (b *builder) project(doc *ProjectDoc) error {
	p := &project.Project{
		BaseEntity:             b.entity("project", doc.Key),
		Name:                   strings.TrimSpace(doc.Name),
		InstallationMethod:     project.InstallationMethod(orDefault(doc.Installation.Method, string(project.InstallationNone))),
		ManualInstallationCost: doc.Installation.ManualCost,
		Complexity:             project.Complexity(orDefault(doc.Installation.Complexity, string(project.ComplexityStandard))),
		TaxRate:                doc.TaxRate,
		ExcludedPartNumbers:    project.StringList(doc.ExcludedParts),
		CostingMethod:          strategy.CostingMethod(doc.CostingMethod),
	}
	if doc.PricingMode != "" {
		m, ok := b.modes[doc.PricingMode]
		if !ok {
			return fmt.Errorf("%w: project %s uses unknown pricing mode %q", shared.ErrInvalidInput, doc.Key, doc.PricingMode)
		}
		p.PricingModeID = &m.ID
		p.PricingMode = m
	}

	for i, o := range doc.Openings {
		okey := doc.Key + "/" + strconv.Itoa(i)
		opening := project.Opening{
			BaseEntity:  b.entity("opening", okey),
			ProjectID:   p.ID,
			SortOrder:   i,
			Name:        o.Name,
			FinishColor: o.Finish,
		}
		for j, pd := range o.Panels {
			pkey := okey + "/" + strconv.Itoa(j)
			panel := project.Panel{
				BaseEntity:       b.entity("panel", pkey),
				OpeningID:        opening.ID,
				SortOrder:        j,
				Name:             pd.Name,
				Width:            pd.Width,
				Height:           pd.Height,
				GlassType:        pd.Glass,
				SwingDirection:   pd.Swing,
				SlidingDirection: pd.Sliding,
			}
			for k, cd := range pd.Components {
				comp, err := b.component(cd, pkey+"/"+strconv.Itoa(k), panel.ID, k)
				if err != nil {
					return fmt.Errorf("project %s opening %s: %w", doc.Key, o.Name, err)
				}
				panel.Components = append(panel.Components, comp)
			}
			opening.Panels = append(opening.Panels, panel)
		}
		p.Openings = append(p.Openings, opening)
	}

	if err := p.Validate(); err != nil {
		return err
	}
	return b.store.addProject(doc.Key, p)
}

func (b *builder) component(doc ComponentDoc, key string, panelID uuid.UUID, order int) (project.ComponentInstance, error) {
	productID, ok := b.products[doc.Product]
	if !ok {
		return project.ComponentInstance{}, fmt.Errorf("%w: unknown product %q", shared.ErrInvalidInput, doc.Product)
	}

	sel := project.NewSelections()
	for catKey, optKey := range doc.Options {
		cat, ok := b.categories[catKey]
		if !ok {
			return project.ComponentInstance{}, fmt.Errorf("%w: unknown option category %q", shared.ErrInvalidInput, catKey)
		}
		id, err := b.optionID(catKey + "/" + optKey)
		if err != nil {
			return project.ComponentInstance{}, err
		}
		sel.Options[cat.ID] = id
	}
	for catKey, q := range doc.Quantities {
		cat, ok := b.categories[catKey]
		if !ok {
			return project.ComponentInstance{}, fmt.Errorf("%w: unknown option category %q", shared.ErrInvalidInput, catKey)
		}
		sel.Quantities[cat.ID] = q
	}
	for optRef, variantKey := range doc.Variants {
		optID, err := b.optionID(optRef)
		if err != nil {
			return project.ComponentInstance{}, err
		}
		vid, ok := b.variants[optRef+"/"+variantKey]
		if !ok {
			return project.ComponentInstance{}, fmt.Errorf("%w: unknown variant %q of %s", shared.ErrInvalidInput, variantKey, optRef)
		}
		sel.Variants[optID] = vid
	}
	for _, optRef := range doc.Included {
		optID, err := b.optionID(optRef)
		if err != nil {
			return project.ComponentInstance{}, err
		}
		sel.Included[optID] = struct{}{}
	}

	return project.ComponentInstance{
		BaseEntity: b.entity("component", key),
		PanelID:    panelID,
		SortOrder:  order,
		ProductID:  productID,
		Selections: sel,
	}, nil
}

func nullable(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}

func valueOr(v *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return *v
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
