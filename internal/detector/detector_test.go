package detector_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixo-intel/competitor-watch/internal/detector"
	"github.com/fixo-intel/competitor-watch/internal/models"
)

func newDetector() *detector.Detector {
	return detector.NewDetector(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func snapshot(entityID string) *models.Snapshot {
	s := models.NewSnapshot(entityID)
	return s
}

func TestDetect_IdenticalSnapshotsYieldNoChanges(t *testing.T) {
	t.Parallel()

	s := snapshot("acme")
	s.Services = []string{"plumbing", "painting"}
	s.Pricing = map[string]string{"basic": "10€", "premium": "25€"}
	s.Locations = []string{"Lisboa", "Porto"}
	s.Promotions = []string{"-20% first booking"}
	s.BusinessInfo = map[string]string{
		models.AboutTextHashKey:    "abc123",
		models.AboutTextPreviewKey: "We fix things.",
	}
	s.RawPageHashes = map[string]string{"home": "h1", "pricing": "h2"}

	changes, err := newDetector().Detect(s, s)

	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDetect_EntityMismatchFails(t *testing.T) {
	t.Parallel()

	changes, err := newDetector().Detect(snapshot("acme"), snapshot("globex"))

	require.ErrorIs(t, err, models.ErrEntityMismatch)
	assert.Nil(t, changes)
}

func TestDetect_ServiceChanges(t *testing.T) {
	t.Parallel()

	old := snapshot("acme")
	old.Services = []string{"A", "B"}
	new := snapshot("acme")
	new.Services = []string{"B", "C"}

	changes, err := newDetector().Detect(old, new)

	require.NoError(t, err)
	require.Len(t, changes, 2)

	added := changes[0]
	assert.Equal(t, models.ServiceAdded, added.Type)
	assert.Equal(t, models.CategoryServices, added.Category)
	assert.Equal(t, "C", added.NewValue)
	assert.Empty(t, added.OldValue)
	assert.Equal(t, models.SeverityHigh, added.Severity)

	removed := changes[1]
	assert.Equal(t, models.ServiceRemoved, removed.Type)
	assert.Equal(t, "A", removed.OldValue)
	assert.Empty(t, removed.NewValue)
	assert.Equal(t, models.SeverityHigh, removed.Severity)
}

func TestDetect_PricingChanges(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name             string
		oldPricing       map[string]string
		newPricing       map[string]string
		expectedSeverity models.Severity
		expectedOld      string
		expectedNew      string
	}{
		{
			name:             "value changed on both sides is high severity",
			oldPricing:       map[string]string{"basic": "10€"},
			newPricing:       map[string]string{"basic": "12€"},
			expectedSeverity: models.SeverityHigh,
			expectedOld:      "10€",
			expectedNew:      "12€",
		},
		{
			name:             "new price point is medium severity",
			oldPricing:       map[string]string{},
			newPricing:       map[string]string{"premium": "25€"},
			expectedSeverity: models.SeverityMedium,
			expectedOld:      "",
			expectedNew:      "25€",
		},
		{
			name:             "removed price point is medium severity",
			oldPricing:       map[string]string{"legacy": "5€"},
			newPricing:       map[string]string{},
			expectedSeverity: models.SeverityMedium,
			expectedOld:      "5€",
			expectedNew:      "",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			old := snapshot("acme")
			old.Pricing = tc.oldPricing
			new := snapshot("acme")
			new.Pricing = tc.newPricing

			changes, err := newDetector().Detect(old, new)

			require.NoError(t, err)
			require.Len(t, changes, 1)
			assert.Equal(t, models.PriceChanged, changes[0].Type)
			assert.Equal(t, models.CategoryPricing, changes[0].Category)
			assert.Equal(t, tc.expectedSeverity, changes[0].Severity)
			assert.Equal(t, tc.expectedOld, changes[0].OldValue)
			assert.Equal(t, tc.expectedNew, changes[0].NewValue)
		})
	}
}

func TestDetect_LocationSeverities(t *testing.T) {
	t.Parallel()

	old := snapshot("acme")
	old.Locations = []string{"Porto"}
	new := snapshot("acme")
	new.Locations = []string{"Lisboa"}

	changes, err := newDetector().Detect(old, new)

	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, models.LocationAdded, changes[0].Type)
	assert.Equal(t, models.SeverityHigh, changes[0].Severity)
	assert.Equal(t, models.LocationRemoved, changes[1].Type)
	assert.Equal(t, models.SeverityMedium, changes[1].Severity)
}

func TestDetect_PromotionSeverities(t *testing.T) {
	t.Parallel()

	old := snapshot("acme")
	old.Promotions = []string{"winter sale"}
	new := snapshot("acme")
	new.Promotions = []string{"spring sale"}

	changes, err := newDetector().Detect(old, new)

	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, models.PromotionNew, changes[0].Type)
	assert.Equal(t, models.SeverityMedium, changes[0].Severity)
	assert.Equal(t, models.PromotionExpired, changes[1].Type)
	assert.Equal(t, models.SeverityInfo, changes[1].Severity)
}

func TestDetect_BusinessNarrative(t *testing.T) {
	t.Parallel()

	t.Run("both hashes empty is not a change", func(t *testing.T) {
		t.Parallel()

		changes, err := newDetector().Detect(snapshot("acme"), snapshot("acme"))

		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("one side missing is not a change", func(t *testing.T) {
		t.Parallel()

		old := snapshot("acme")
		new := snapshot("acme")
		new.BusinessInfo[models.AboutTextHashKey] = "abc"

		changes, err := newDetector().Detect(old, new)

		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("differing hashes carry previews", func(t *testing.T) {
		t.Parallel()

		old := snapshot("acme")
		old.BusinessInfo[models.AboutTextHashKey] = "abc"
		old.BusinessInfo[models.AboutTextPreviewKey] = "We fix taps."
		new := snapshot("acme")
		new.BusinessInfo[models.AboutTextHashKey] = "def"
		new.BusinessInfo[models.AboutTextPreviewKey] = "We fix everything."

		changes, err := newDetector().Detect(old, new)

		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, models.BusinessModelChange, changes[0].Type)
		assert.Equal(t, models.CategoryBusinessModel, changes[0].Category)
		assert.Equal(t, models.SeverityMedium, changes[0].Severity)
		assert.Equal(t, "We fix taps.", changes[0].OldValue)
		assert.Equal(t, "We fix everything.", changes[0].NewValue)
	})
}

func TestDetect_RawPageHashes(t *testing.T) {
	t.Parallel()

	old := snapshot("acme")
	old.RawPageHashes = map[string]string{
		"home":    "aaaaaaaaaaaaaaaaaaaaaaaa",
		"pricing": "cccc",
		"blog":    "", // not observed, never a change
	}
	new := snapshot("acme")
	new.RawPageHashes = map[string]string{
		"home":    "bbbbbbbbbbbbbbbbbbbbbbbb",
		"pricing": "cccc",
		"blog":    "dddd",
		"careers": "eeee", // only on one side, never a change
	}

	changes, err := newDetector().Detect(old, new)

	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.WebsiteContentChange, changes[0].Type)
	assert.Equal(t, models.SeverityInfo, changes[0].Severity)
	assert.Contains(t, changes[0].Description, "home")
	assert.Equal(t, "hash: aaaaaaaaaaaaaaaa...", changes[0].OldValue)
	assert.Equal(t, "hash: bbbbbbbbbbbbbbbb...", changes[0].NewValue)
}

// Category blocks always appear in the fixed order: services, pricing,
// locations, promotions, business narrative, raw pages.
func TestDetect_EmissionOrder(t *testing.T) {
	t.Parallel()

	old := snapshot("acme")
	old.Services = []string{"A"}
	old.Pricing = map[string]string{"basic": "10€"}
	old.Locations = []string{"Porto"}
	old.Promotions = []string{"old promo"}
	old.BusinessInfo = map[string]string{models.AboutTextHashKey: "h1"}
	old.RawPageHashes = map[string]string{"home": "p1"}

	new := snapshot("acme")
	new.Services = []string{"B"}
	new.Pricing = map[string]string{"basic": "12€"}
	new.Locations = []string{"Lisboa"}
	new.Promotions = []string{"new promo"}
	new.BusinessInfo = map[string]string{models.AboutTextHashKey: "h2"}
	new.RawPageHashes = map[string]string{"home": "p2"}

	changes, err := newDetector().Detect(old, new)
	require.NoError(t, err)

	var types []models.ChangeType
	for _, change := range changes {
		types = append(types, change.Type)
	}
	assert.Equal(t, []models.ChangeType{
		models.ServiceAdded,
		models.ServiceRemoved,
		models.PriceChanged,
		models.LocationAdded,
		models.LocationRemoved,
		models.PromotionNew,
		models.PromotionExpired,
		models.BusinessModelChange,
		models.WebsiteContentChange,
	}, types)
}

// Swapping direction swaps added/removed and old/new values but touches the
// same set of items.
func TestDetect_DirectionAntisymmetry(t *testing.T) {
	t.Parallel()

	old := snapshot("acme")
	old.Services = []string{"A", "B"}
	new := snapshot("acme")
	new.Services = []string{"B", "C"}

	det := newDetector()
	forward, err := det.Detect(old, new)
	require.NoError(t, err)
	backward, err := det.Detect(new, old)
	require.NoError(t, err)

	require.Len(t, forward, 2)
	require.Len(t, backward, 2)

	assert.Equal(t, forward[0].NewValue, backward[1].OldValue) // C added forward, removed backward
	assert.Equal(t, forward[1].OldValue, backward[0].NewValue) // A removed forward, added backward
}

func TestDetect_Deterministic(t *testing.T) {
	t.Parallel()

	old := snapshot("acme")
	old.Services = []string{"a", "b", "c", "d", "e"}
	new := snapshot("acme")
	new.Services = []string{"d", "e", "f", "g", "h"}

	det := newDetector()
	first, err := det.Detect(old, new)
	require.NoError(t, err)
	second, err := det.Detect(old, new)
	require.NoError(t, err)

	require.Len(t, first, len(second))
	for i := range first {
		assert.Equal(t, first[i].Type, second[i].Type)
		assert.Equal(t, first[i].OldValue, second[i].OldValue)
		assert.Equal(t, first[i].NewValue, second[i].NewValue)
	}
}
