package research

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"
	"desirefinder-be/pkg/dropshipping"
	"desirefinder-be/pkg/llm"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const ShoppingSearchName = "shopping_search"

// ProductSearcher is the vetting funnel as the shopping action sees it.
type ProductSearcher interface {
	Run(ctx context.Context, req dropshipping.Request) ([]dropshipping.VettedResult, error)
}

type ShoppingInput struct {
	Queries []string `validate:"required,min=1,max=3,dive,required"`
}

type shoppingSearch struct {
	searcher ProductSearcher
	llm      llm.LLMProvider
	logger   logger.ILogger
}

func NewShoppingSearch(searcher ProductSearcher, provider llm.LLMProvider, logger logger.ILogger) Action {
	s := &shoppingSearch{searcher: searcher, llm: provider, logger: logger}
	return Action{
		Name:        ShoppingSearchName,
		Description: "Search for products that match the user's desires, needs and preferences.",
		Enabled: func(cfg turn.Config, cls turn.ClassifierOutput) bool {
			return cfg.HasSource(turn.SourceShopping) && !cls.Classification.SkipSearch
		},
		Input:   s.input,
		Execute: s.execute,
	}
}

func (s *shoppingSearch) input(ctx context.Context, rc *Context) (interface{}, error) {
	queries, err := s.generateQueries(ctx, rc, nil)
	if err != nil || len(queries) == 0 {
		if err != nil {
			s.logger.Warn("SHOPPING_SEARCH", "Query generation failed, using follow-up", map[string]interface{}{
				"error": err.Error(),
			})
		}
		fallback := rc.Classification.StandaloneFollowUp
		if fallback == "" {
			fallback = rc.FollowUp
		}
		queries = []string{fallback}
	}
	return &ShoppingInput{Queries: capQueries(queries)}, nil
}

func (s *shoppingSearch) execute(ctx context.Context, input interface{}, rc *Context) (Result, error) {
	in := input.(*ShoppingInput)

	memo := dropshipping.NewMemo()
	resultsStepID := uuid.NewString()

	var (
		mu       sync.Mutex
		chunks   []Chunk
		seen     = make(map[string]bool)
		searched []string
	)

	queries := capQueries(in.Queries)
	for round := 0; round < rc.Config.Mode.Iterations(); round++ {
		if round > 0 {
			next, err := s.generateQueries(ctx, rc, searched)
			if err != nil {
				s.logger.Warn("SHOPPING_SEARCH", "Refinement failed, stopping", map[string]interface{}{
					"round": round,
					"error": err.Error(),
				})
				break
			}
			queries = fresh(capQueries(next), searched)
			if len(queries) == 0 {
				break
			}
		}
		searched = append(searched, queries...)

		err := rc.Session.UpsertSubStep(rc.ResearchBlockID, session.SubStep{
			ID:        uuid.NewString(),
			Type:      session.SubStepSearching,
			Searching: queries,
		})
		if err != nil {
			return Result{}, err
		}

		var g errgroup.Group
		for _, q := range queries {
			g.Go(func() error {
				results, err := s.searcher.Run(ctx, dropshipping.Request{
					Queries: []string{q},
					Limit:   dropshipping.MaxResults,
					Memo:    memo,
				})
				if err != nil {
					s.logger.Warn("SHOPPING_SEARCH", "Funnel failed", map[string]interface{}{
						"query": q,
						"error": err.Error(),
					})
					return nil
				}

				mu.Lock()
				defer mu.Unlock()
				var batch []Chunk
				for _, r := range results {
					key := r.Product.Source + ":" + r.Product.SupplierID()
					if seen[key] {
						continue
					}
					seen[key] = true
					batch = append(batch, ProductChunk(r.Product))
				}
				if len(batch) == 0 {
					return nil
				}
				chunks = append(chunks, batch...)
				// one search_results step per turn; later batches append to it
				return rc.Session.AppendSubStepResults(rc.ResearchBlockID, resultsStepID, batch)
			})
		}
		if err := g.Wait(); err != nil {
			return Result{Type: "search_results", Chunks: chunks}, err
		}
	}

	return Result{Type: "search_results", Chunks: chunks}, nil
}

type queryList struct {
	Queries []string `json:"queries"`
}

func (s *shoppingSearch) generateQueries(ctx context.Context, rc *Context, searched []string) ([]string, error) {
	var sb strings.Builder
	sb.WriteString("<conversation_history>\n")
	sb.WriteString(turn.FormatHistory(rc.History))
	sb.WriteString("\n</conversation_history>\n<user_query>\n")
	sb.WriteString(rc.FollowUp)
	sb.WriteString("\n</user_query>\n")
	if len(searched) > 0 {
		sb.WriteString("<already_searched>\n")
		sb.WriteString(strings.Join(searched, "\n"))
		sb.WriteString("\n</already_searched>\n")
	}

	messages := []llm.Message{
		{Role: "system", Content: modePrompt(rc.Config.Mode) + queryOutputFormat},
		{Role: "user", Content: sb.String()},
	}
	resp, err := s.llm.Chat(ctx, messages, llm.WithTemperature(0.2), llm.WithJSONResponse())
	if err != nil {
		return nil, err
	}

	var out queryList
	if err := llm.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return out.Queries, nil
}

func capQueries(queries []string) []string {
	out := make([]string, 0, dropshipping.MaxQueries)
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == dropshipping.MaxQueries {
			break
		}
	}
	return out
}

func fresh(queries, searched []string) []string {
	done := make(map[string]bool, len(searched))
	for _, q := range searched {
		done[strings.ToLower(q)] = true
	}
	var out []string
	for _, q := range queries {
		if !done[strings.ToLower(q)] {
			out = append(out, q)
		}
	}
	return out
}

// ProductChunk renders a vetted product as a citable chunk. The metadata
// carries everything the import endpoint needs to revalidate it later.
func ProductChunk(p dropshipping.Product) Chunk {
	rating := "N/A"
	if p.Rating > 0 {
		rating = strconv.FormatFloat(p.Rating, 'f', -1, 64) + "★"
	}
	orders := p.Orders
	if orders == 0 {
		orders = p.Reviews
	}

	supplierPrice := p.SupplierPrice
	if supplierPrice == 0 {
		supplierPrice = p.Price / dropshipping.MarkupMultiplier
	}

	productData := map[string]interface{}{
		"supplierProductId": p.SupplierID(),
		"name":              p.Name,
		"description":       p.Description,
		"supplierPrice":     supplierPrice,
		"price":             p.Price,
		"currency":          p.Currency,
		"imageUrl":          p.ImageURL,
		"buyUrl":            p.BuyURL,
		"vendor":            p.Vendor,
		"category":          p.Category,
		"rating":            p.Rating,
		"reviews":           p.Reviews,
		"orders":            p.Orders,
		"shippingDays":      p.ShippingDays,
		"shippingMethod":    p.ShippingMethod,
		"inStock":           p.Available(),
		"source":            p.Source,
	}

	return Chunk{
		Content: fmt.Sprintf("%s: %s - %s %.2f (%s, %d orders)",
			p.Name, p.Description, p.Currency, p.Price, rating, orders),
		Metadata: map[string]interface{}{
			"title":             p.Name,
			"url":               "/api/product/v1/import",
			"productId":         p.ID,
			"supplierProductId": p.SupplierID(),
			"price":             p.Price,
			"supplierPrice":     supplierPrice,
			"currency":          p.Currency,
			"imageUrl":          p.ImageURL,
			"vendor":            p.Vendor,
			"category":          p.Category,
			"rating":            p.Rating,
			"reviews":           p.Reviews,
			"orders":            p.Orders,
			"shippingDays":      p.ShippingDays,
			"shippingMethod":    p.ShippingMethod,
			"inStock":           p.Available(),
			"productData":       productData,
			"type":              "product",
		},
	}
}
