package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
	"github.com/partstrader/client_tools/internal/platform/logger"
)

// --- Mocks ---

type MockExclusionSource struct {
	mock.Mock
}

func (m *MockExclusionSource) LoadExclusions(ctx context.Context) ([]domain.ExclusionRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExclusionRecord), args.Error(1)
}

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Lookup(ctx context.Context, part domain.PartItem) ([]domain.PartItem, error) {
	args := m.Called(ctx, part)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PartItem), args.Error(1)
}

func (m *MockLookup) Name() string {
	return "mock_lookup"
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

// --- Helpers ---

func mustParse(t *testing.T, raw string) domain.PartItem {
	t.Helper()
	part, err := domain.ParsePartNumber(raw)
	require.NoError(t, err)
	return part
}

func compatibleWith(part domain.PartItem) []domain.PartItem {
	enriched := part
	enriched.Description = "Queried part"
	enriched.Availability = 4
	enriched.Price, _ = domain.PriceFromString("19.99")
	return []domain.PartItem{enriched}
}

func newService(ex *MockExclusionSource, lk *MockLookup, pub EventPublisher) *CompatibilityService {
	return NewCompatibilityService(ex, lk, pub, logger.Discard())
}

var standardExclusions = []domain.ExclusionRecord{
	{PartNumber: "1111-Invoice"},
	{PartNumber: "1234-abcd"},
	{PartNumber: "9999-charge"},
}

// --- Tests ---

func TestCheckCompatibility_NoInput(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	for _, input := range [][]string{nil, {}} {
		result, err := svc.CheckCompatibility(context.Background(), input)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrNoInput)
	}
	ex.AssertNotCalled(t, "LoadExclusions", mock.Anything)
	lk.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestCheckCompatibility_AllValidNoneExcluded(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	ex.On("LoadExclusions", mock.Anything).Return([]domain.ExclusionRecord{}, nil).Once()
	for _, raw := range []string{"2222-Invoice", "3333-Invoice", "4444-a1b2c3"} {
		part := mustParse(t, raw)
		lk.On("Lookup", mock.Anything, part).Return(compatibleWith(part), nil).Once()
	}

	result, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice", "3333-Invoice", "4444-a1b2c3"})
	require.NoError(t, err)
	assert.Len(t, result, 3)
	for _, key := range []string{"2222-Invoice", "3333-Invoice", "4444-a1b2c3"} {
		require.Contains(t, result, key)
		require.Len(t, result[key], 1)
		assert.Equal(t, key, result[key][0].PartNumber)
		assert.Equal(t, "19.99", result[key][0].Price.StringFixed(2))
	}
	ex.AssertExpectations(t)
	lk.AssertExpectations(t)
}

func TestCheckCompatibility_FailsOnFirstInvalid(t *testing.T) {
	tests := map[string][]string{
		"only entry":         {"123-ABC"},
		"first of two":       {"12345-abc", "1234-test"},
		"last of three":      {"1234-test", "2222-Invoice", "1234-abc"},
		"middle":             {"2222-Invoice", "", "3333-Invoice"},
		"non alphanumeric":   {"2222-Invoice", "2222-Inv*ice"},
		"all excluded first": {"1111-Invoice", "12-x"},
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			ex := new(MockExclusionSource)
			lk := new(MockLookup)
			svc := newService(ex, lk, nil)

			result, err := svc.CheckCompatibility(context.Background(), input)
			assert.Nil(t, result)
			require.ErrorIs(t, err, domain.ErrInvalidFormat)
			ex.AssertNotCalled(t, "LoadExclusions", mock.Anything)
			lk.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckCompatibility_ReportsFirstOffendingValue(t *testing.T) {
	svc := newService(new(MockExclusionSource), new(MockLookup), nil)

	_, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice", "123-ABC", "1234-abc"})
	var invalid *domain.InvalidPartError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "123-ABC", invalid.PartNumber)
}

func TestCheckCompatibility_DeduplicatesBeforeLookup(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	part := mustParse(t, "2222-Invoice")
	ex.On("LoadExclusions", mock.Anything).Return(standardExclusions, nil).Once()
	lk.On("Lookup", mock.Anything, part).Return(compatibleWith(part), nil).Once()

	result, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice", "2222-Invoice", "2222-Invoice"})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Contains(t, result, "2222-Invoice")
	lk.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestCheckCompatibility_ExcludedPartsDropped(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	part := mustParse(t, "2222-Invoice")
	ex.On("LoadExclusions", mock.Anything).Return(standardExclusions, nil).Once()
	lk.On("Lookup", mock.Anything, part).Return(compatibleWith(part), nil).Once()

	result, err := svc.CheckCompatibility(context.Background(), []string{"1111-Invoice", "2222-Invoice"})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Contains(t, result, "2222-Invoice")
	assert.NotContains(t, result, "1111-Invoice")
	lk.AssertExpectations(t)
}

func TestCheckCompatibility_ExclusionIgnoresCase(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	ex.On("LoadExclusions", mock.Anything).Return([]domain.ExclusionRecord{{PartNumber: "1234-abcd"}}, nil).Once()

	result, err := svc.CheckCompatibility(context.Background(), []string{"1234-ABCD", "1234-abcd", "1234-AbCd"})
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
	lk.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestCheckCompatibility_AllExcludedYieldsEmptyMap(t *testing.T) {
	inputs := [][]string{
		{"1111-Invoice"},
		{"1111-Invoice", "1111-Invoice"},
		{"1111-Invoice", "1234-abcd"},
		{"1111-Invoice", "1234-abcd", "9999-charge"},
	}
	for _, input := range inputs {
		ex := new(MockExclusionSource)
		lk := new(MockLookup)
		svc := newService(ex, lk, nil)
		ex.On("LoadExclusions", mock.Anything).Return(standardExclusions, nil).Once()

		result, err := svc.CheckCompatibility(context.Background(), input)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Empty(t, result)

		b, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(b))
	}
}

func TestCheckCompatibility_ReloadsExclusionsEveryCall(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	part := mustParse(t, "2222-Invoice")
	// First month: nothing excluded. Second month: the part was added to the list.
	ex.On("LoadExclusions", mock.Anything).Return([]domain.ExclusionRecord{}, nil).Once()
	ex.On("LoadExclusions", mock.Anything).Return([]domain.ExclusionRecord{{PartNumber: "2222-invoice"}}, nil).Once()
	lk.On("Lookup", mock.Anything, part).Return(compatibleWith(part), nil).Once()

	first, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice"})
	require.NoError(t, err)
	assert.Contains(t, first, "2222-Invoice")

	second, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice"})
	require.NoError(t, err)
	assert.Empty(t, second)

	ex.AssertNumberOfCalls(t, "LoadExclusions", 2)
	lk.AssertExpectations(t)
}

func TestCheckCompatibility_ExclusionSourceFailure(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	cause := errors.New("exclusions.json: permission denied")
	ex.On("LoadExclusions", mock.Anything).Return(nil, cause).Once()

	result, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice"})
	assert.Nil(t, result)
	require.ErrorIs(t, err, domain.ErrCollaboratorFailure)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, domain.ErrInvalidFormat)

	var collab *domain.CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, "exclusion_source", collab.Collaborator)
	lk.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestCheckCompatibility_LookupFailureNotMasked(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	okPart := mustParse(t, "2222-Invoice")
	badPart := mustParse(t, "3333-Invoice")
	cause := errors.New("parts service unavailable")
	ex.On("LoadExclusions", mock.Anything).Return([]domain.ExclusionRecord{}, nil).Once()
	lk.On("Lookup", mock.Anything, okPart).Return(compatibleWith(okPart), nil).Once()
	lk.On("Lookup", mock.Anything, badPart).Return(nil, cause).Once()

	result, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice", "3333-Invoice"})
	assert.Nil(t, result)
	require.ErrorIs(t, err, domain.ErrCollaboratorFailure)

	var collab *domain.CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, "mock_lookup", collab.Collaborator)
	assert.Equal(t, "3333-Invoice", collab.PartNumber)
	lk.AssertExpectations(t)
}

func TestCheckCompatibility_NilLookupResultBecomesEmptyList(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	svc := newService(ex, lk, nil)

	part := mustParse(t, "2222-Invoice")
	ex.On("LoadExclusions", mock.Anything).Return([]domain.ExclusionRecord{}, nil).Once()
	lk.On("Lookup", mock.Anything, part).Return([]domain.PartItem(nil), nil).Once()

	result, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice"})
	require.NoError(t, err)
	require.Contains(t, result, "2222-Invoice")
	assert.NotNil(t, result["2222-Invoice"])
	assert.Empty(t, result["2222-Invoice"])
}

func TestCheckCompatibility_PublishesCheckedEvent(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	pub := new(MockPublisher)
	svc := newService(ex, lk, pub)

	part := mustParse(t, "2222-Invoice")
	ex.On("LoadExclusions", mock.Anything).Return(standardExclusions, nil).Once()
	lk.On("Lookup", mock.Anything, part).Return(compatibleWith(part), nil).Once()

	var published domain.CompatibilityCheckedEvent
	pub.On("Publish", mock.Anything, domain.NATSCompatibilityCheckedV1, mock.AnythingOfType("[]uint8")).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(2).([]byte), &published))
		}).
		Return(nil).Once()

	_, err := svc.CheckCompatibility(context.Background(), []string{"1111-Invoice", "2222-Invoice", "2222-Invoice"})
	require.NoError(t, err)
	pub.AssertExpectations(t)

	assert.NotEmpty(t, published.EventID)
	assert.Equal(t, []string{"1111-Invoice", "2222-Invoice"}, published.RequestedParts)
	assert.Equal(t, []string{"1111-Invoice"}, published.ExcludedParts)
	assert.Equal(t, []string{"2222-Invoice"}, published.ReturnedParts)
	assert.False(t, published.CheckedAt.IsZero())
}

func TestCheckCompatibility_PublishFailureIgnored(t *testing.T) {
	ex := new(MockExclusionSource)
	lk := new(MockLookup)
	pub := new(MockPublisher)
	svc := newService(ex, lk, pub)

	part := mustParse(t, "2222-Invoice")
	ex.On("LoadExclusions", mock.Anything).Return([]domain.ExclusionRecord{}, nil).Once()
	lk.On("Lookup", mock.Anything, part).Return(compatibleWith(part), nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats: connection closed")).Once()

	result, err := svc.CheckCompatibility(context.Background(), []string{"2222-Invoice"})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	pub.AssertExpectations(t)
}

func TestCheckCompatibility_NoPublishOnFailure(t *testing.T) {
	pub := new(MockPublisher)
	svc := newService(new(MockExclusionSource), new(MockLookup), pub)

	_, err := svc.CheckCompatibility(context.Background(), []string{"bad"})
	require.Error(t, err)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
