package screener

import (
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/amarcoder01/sift/internal/common"
	"github.com/amarcoder01/sift/internal/models"
)

const searchResultSize = 50

// searchDoc is the indexed shape for one instrument.
type searchDoc struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Exchange string `json:"exchange"`
}

// SearchIndex is an in-memory full-text index over the daily baseline.
// It is rebuilt whenever the baseline rolls over to a new trading date.
type SearchIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *common.Logger
}

// NewSearchIndex creates an empty in-memory search index.
func NewSearchIndex(logger *common.Logger) (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &SearchIndex{index: index, logger: logger}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Store = true
	textField.Index = true
	docMapping.AddFieldMappingsAt("ticker", textField)
	docMapping.AddFieldMappingsAt("name", textField)
	docMapping.AddFieldMappingsAt("sector", textField)
	docMapping.AddFieldMappingsAt("exchange", textField)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Rebuild replaces the index contents with the given rows. The swap is
// atomic with respect to Search: queries see the old index until the new
// one is fully populated.
func (s *SearchIndex) Rebuild(rows []models.ScreenerRow) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return err
	}

	batch := fresh.NewBatch()
	for _, row := range rows {
		doc := searchDoc{
			Ticker:   strings.ToLower(row.Ticker),
			Name:     row.Name,
			Sector:   row.Sector,
			Exchange: row.Exchange,
		}
		if err := batch.Index(row.Ticker, doc); err != nil {
			return err
		}
	}
	if err := fresh.Batch(batch); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close previous search index")
		}
	}

	s.logger.Debug().Int("documents", len(rows)).Msg("Search index rebuilt")
	return nil
}

// Search returns tickers ranked by relevance. Exact symbol matches rank
// above prefix matches, which rank above name matches and substring hits.
func (s *SearchIndex) Search(query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	lower := strings.ToLower(query)

	exactQuery := bleve.NewTermQuery(lower)
	exactQuery.SetField("ticker")
	exactQuery.SetBoost(10.0)

	prefixQuery := bleve.NewPrefixQuery(lower)
	prefixQuery.SetField("ticker")
	prefixQuery.SetBoost(5.0)

	nameMatchQuery := bleve.NewMatchQuery(query)
	nameMatchQuery.SetField("name")
	nameMatchQuery.SetBoost(3.0)

	wildcardTicker := bleve.NewWildcardQuery("*" + lower + "*")
	wildcardTicker.SetField("ticker")
	wildcardTicker.SetBoost(2.0)

	wildcardName := bleve.NewWildcardQuery("*" + lower + "*")
	wildcardName.SetField("name")
	wildcardName.SetBoost(1.0)

	searchQuery := bleve.NewDisjunctionQuery(
		exactQuery,
		prefixQuery,
		nameMatchQuery,
		wildcardTicker,
		wildcardName,
	)

	request := bleve.NewSearchRequest(searchQuery)
	request.Size = searchResultSize

	s.mu.RLock()
	index := s.index
	s.mu.RUnlock()

	results, err := index.Search(request)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		tickers = append(tickers, hit.ID)
	}
	return tickers, nil
}

// Close releases the underlying index.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
