package proofreading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldnotes/articlepipeline/internal/models"
)

// fakeRuleSetStore is an in-memory Store for exercising the lifecycle
// functions without a database.
type fakeRuleSetStore struct {
	byID map[int64]*models.RuleSet
}

func newFakeRuleSetStore(sets ...*models.RuleSet) *fakeRuleSetStore {
	s := &fakeRuleSetStore{byID: map[int64]*models.RuleSet{}}
	for _, rs := range sets {
		s.byID[rs.ID] = rs
	}
	return s
}

func (s *fakeRuleSetStore) SaveRuleSet(rs *models.RuleSet) error {
	cp := *rs
	s.byID[rs.ID] = &cp
	return nil
}

func (s *fakeRuleSetStore) LoadRuleSet(id int64) (*models.RuleSet, error) {
	rs, ok := s.byID[id]
	if !ok {
		return nil, assertNotFound{id}
	}
	cp := *rs
	return &cp, nil
}

func (s *fakeRuleSetStore) LatestPublished() (*models.RuleSet, error) {
	var best *models.RuleSet
	for _, rs := range s.byID {
		if rs.Status != models.RuleSetPublished {
			continue
		}
		if best == nil || rs.Generation > best.Generation {
			best = rs
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

type assertNotFound struct{ id int64 }

func (e assertNotFound) Error() string { return "ruleset not found" }

func validRule(code string) models.Rule {
	return models.Rule{ID: code, Code: code, Pattern: `\bfoo\b`, Class: models.RuleClassGrammar, Enabled: true}
}

func TestPublish_FirstRulesetGetsGenerationOne(t *testing.T) {
	draft := &models.RuleSet{ID: 1, Status: models.RuleSetDraft, Rules: []models.Rule{validRule("GR-1")}}
	store := newFakeRuleSetStore(draft)

	published, err := Publish(store, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RuleSetPublished, published.Status)
	assert.Equal(t, int64(1), published.Generation)
}

func TestPublish_ArchivesPreviouslyPublishedRuleset(t *testing.T) {
	old := &models.RuleSet{ID: 1, Status: models.RuleSetPublished, Generation: 1, Rules: []models.Rule{validRule("GR-1")}}
	draft := &models.RuleSet{ID: 2, Status: models.RuleSetDraft, Rules: []models.Rule{validRule("GR-2")}}
	store := newFakeRuleSetStore(old, draft)

	published, err := Publish(store, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), published.Generation)

	reloadedOld, err := store.LoadRuleSet(1)
	require.NoError(t, err)
	assert.Equal(t, models.RuleSetArchived, reloadedOld.Status)
	assert.NotNil(t, reloadedOld.ArchivedAt)

	// At most one ruleset published at a time.
	latest, err := store.LatestPublished()
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.ID)
}

func TestPublish_RejectsNonDraft(t *testing.T) {
	rs := &models.RuleSet{ID: 1, Status: models.RuleSetPublished, Rules: []models.Rule{validRule("GR-1")}}
	store := newFakeRuleSetStore(rs)

	_, err := Publish(store, 1)
	assert.Error(t, err)
}

func TestPublish_RejectsMissingPattern(t *testing.T) {
	rs := &models.RuleSet{ID: 1, Status: models.RuleSetDraft, Rules: []models.Rule{
		{ID: "GR-1", Code: "GR-1", Pattern: ""},
	}}
	store := newFakeRuleSetStore(rs)

	_, err := Publish(store, 1)
	assert.Error(t, err)
}

func TestPublish_RejectsUncompilablePattern(t *testing.T) {
	rs := &models.RuleSet{ID: 1, Status: models.RuleSetDraft, Rules: []models.Rule{
		{ID: "GR-1", Code: "GR-1", Pattern: "(unclosed"},
	}}
	store := newFakeRuleSetStore(rs)

	_, err := Publish(store, 1)
	assert.Error(t, err)
}

func TestPublish_RejectsDuplicateCodes(t *testing.T) {
	rs := &models.RuleSet{ID: 1, Status: models.RuleSetDraft, Rules: []models.Rule{
		validRule("GR-1"),
		{ID: "GR-1b", Code: "GR-1", Pattern: `\bbar\b`},
	}}
	store := newFakeRuleSetStore(rs)

	_, err := Publish(store, 1)
	assert.Error(t, err)
}

func TestArchive_RequiresPublished(t *testing.T) {
	rs := &models.RuleSet{ID: 1, Status: models.RuleSetDraft}
	store := newFakeRuleSetStore(rs)

	_, err := Archive(store, 1)
	assert.Error(t, err)
}

func TestArchive_MarksArchived(t *testing.T) {
	rs := &models.RuleSet{ID: 1, Status: models.RuleSetPublished}
	store := newFakeRuleSetStore(rs)

	archived, err := Archive(store, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RuleSetArchived, archived.Status)
}
