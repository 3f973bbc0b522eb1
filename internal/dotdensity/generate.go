package dotdensity

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

// DefaultRatio is the default density ratio: one dot per hundred people.
const DefaultRatio = 100

// Options configures a Generator.
type Options struct {
	// Ratio is the number of people represented by one dot. Defaults to
	// DefaultRatio.
	Ratio float64

	// Categories is the closed enumeration of category labels for the
	// city. Every region produces a dot count for every label here, and a
	// region count outside this set fails the run.
	Categories []string

	// Seed is the run seed. Each region derives its own random stream
	// from it, so output is identical at any concurrency level.
	Seed int64

	// Concurrency is the number of parallel region workers. Defaults to 4.
	Concurrency int

	// ForceRareDot places a single dot for any category whose city-wide
	// dot count rounds to zero even though its population is positive.
	// This is a presentation aid to keep rare categories visible in the
	// legend; it deliberately breaks unbiasedness for that one cell, so
	// it is off by default.
	ForceRareDot bool
}

// Generator produces dot collections for whole cities.
type Generator struct {
	opts Options
}

// New validates the options and returns a Generator.
func New(opts Options) (*Generator, error) {
	if opts.Ratio == 0 {
		opts.Ratio = DefaultRatio
	}
	if opts.Ratio < 0 {
		return nil, eris.Errorf("dotdensity: density ratio must be positive, got %v", opts.Ratio)
	}
	if len(opts.Categories) == 0 {
		return nil, eris.New("dotdensity: at least one category is required")
	}
	seen := make(map[string]bool, len(opts.Categories))
	for _, label := range opts.Categories {
		if seen[label] {
			return nil, eris.Errorf("dotdensity: duplicate category label %q", label)
		}
		seen[label] = true
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Generator{opts: opts}, nil
}

// regionRand returns the random stream for one region: the run seed mixed
// with an FNV hash of the region ID. Regions never share a stream, so
// concurrent workers need no locking and a fixed seed reproduces the run.
func (g *Generator) regionRand(regionID string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(regionID))
	return rand.New(rand.NewSource(g.opts.Seed ^ int64(h.Sum64())))
}

// GenerateRegion produces the shuffled dot set for a single region.
func (g *Generator) GenerateRegion(region model.Region) ([]model.Dot, error) {
	if !region.HasGeometry() {
		return nil, eris.Errorf("dotdensity: region %s has no geometry", region.ID)
	}

	rng := g.regionRand(region.ID)

	table, err := DeriveCounts(region.Counts, g.opts.Categories, g.opts.Ratio, rng)
	if err != nil {
		return nil, eris.Wrapf(err, "dotdensity: region %s", region.ID)
	}

	var dots []model.Dot
	for _, label := range g.opts.Categories {
		coords, err := SampleWithin(region.Geometry, table[label], rng)
		if err != nil {
			return nil, eris.Wrapf(err, "dotdensity: region %s category %s", region.ID, label)
		}
		for _, c := range coords {
			dots = append(dots, model.Dot{Lon: c[0], Lat: c[1], Category: label, RegionID: region.ID})
		}
	}

	// Shuffle so rendering order never stacks one category on top.
	rng.Shuffle(len(dots), func(i, j int) {
		dots[i], dots[j] = dots[j], dots[i]
	})
	return dots, nil
}

// Generate produces the dot collection for a whole city. Regions are
// processed in parallel; the result is deterministic for a given seed.
func (g *Generator) Generate(ctx context.Context, city string, regions []model.Region) (*model.DotCollection, error) {
	if len(regions) == 0 {
		return nil, eris.Errorf("dotdensity: city %s has no regions", city)
	}

	log := zap.L().With(
		zap.String("component", "dotdensity"),
		zap.String("city", city),
		zap.Int64("seed", g.opts.Seed),
	)
	log.Info("generating dots",
		zap.Int("regions", len(regions)),
		zap.Float64("ratio", g.opts.Ratio),
		zap.Int("concurrency", g.opts.Concurrency),
	)

	results := make([][]model.Dot, len(regions))

	grp, gCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.opts.Concurrency)
	for i := range regions {
		grp.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			dots, err := g.GenerateRegion(regions[i])
			if err != nil {
				return err
			}
			results[i] = dots
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	collection := &model.DotCollection{City: city, Seed: g.opts.Seed, Ratio: g.opts.Ratio}
	for _, dots := range results {
		collection.Dots = append(collection.Dots, dots...)
	}

	if g.opts.ForceRareDot {
		if err := g.forceRareDots(collection, regions); err != nil {
			return nil, err
		}
	}

	log.Info("dot generation complete", zap.Int("dots", len(collection.Dots)))
	return collection, nil
}

// forceRareDots appends one dot for every category that rounded to zero
// city-wide despite a positive population. The host region is chosen with
// probability proportional to the category's raw counts.
func (g *Generator) forceRareDots(collection *model.DotCollection, regions []model.Region) error {
	perCategory := collection.CountByCategory()

	for _, label := range g.opts.Categories {
		if perCategory[label] > 0 {
			continue
		}

		var total int
		for i := range regions {
			total += regions[i].Count(label)
		}
		if total == 0 {
			continue
		}

		// A stream per forced category, independent of the region draws,
		// keeps the placement stable for a given seed.
		rng := g.regionRand("forced:" + label)

		target := rng.Intn(total)
		var host *model.Region
		for i := range regions {
			target -= regions[i].Count(label)
			if target < 0 {
				host = &regions[i]
				break
			}
		}

		coords, err := SampleWithin(host.Geometry, 1, rng)
		if err != nil {
			return eris.Wrapf(err, "dotdensity: forced dot for category %s in region %s", label, host.ID)
		}

		zap.L().Info("forcing single dot for rare category",
			zap.String("category", label),
			zap.String("region", host.ID),
			zap.Int("population", total),
		)
		collection.Dots = append(collection.Dots, model.Dot{
			Lon:      coords[0][0],
			Lat:      coords[0][1],
			Category: label,
			RegionID: host.ID,
		})
	}
	return nil
}
