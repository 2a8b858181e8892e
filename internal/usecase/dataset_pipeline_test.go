package usecase

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "ShopIntent/pkg/logger"
)

const sampleCSV = `Administrative,Administrative_Duration,Informational,Informational_Duration,ProductRelated,ProductRelated_Duration,BounceRates,ExitRates,PageValues,SpecialDay,Month,OperatingSystems,Browser,Region,TrafficType,VisitorType,Weekend,Revenue
0,0,0,0,1,0,0.2,0.2,0,0,Feb,1,1,1,1,Returning_Visitor,FALSE,FALSE
2,80,0,0,10,627,0.02,0.05,12.5,0,June,2,2,3,2,New_Visitor,TRUE,TRUE
1,13,1,40,5,300,0.01,0.04,0,0.4,Nov,3,2,1,4,Returning_Visitor,FALSE,FALSE
`

func testDatasetPipeline(store *fakeDatasetStore) *DatasetPipeline {
	return NewDatasetPipeline(store, nil, newNopMetrics(), applogger.Nop(), DatasetConfig{Seed: 42})
}

func TestParseCSVSynthesizesRows(t *testing.T) {
	p := testDatasetPipeline(newFakeDatasetStore())

	rows, err := p.parseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.NotEmpty(t, first.UID)
	assert.Equal(t, time.February, first.SessionDate.Month())
	assert.Equal(t, 0, first.Revenue)
	assert.InDelta(t, 0.2, first.BounceRates, 1e-9)
	assert.Equal(t, "Returning_Visitor", first.VisitorType)
	assert.Equal(t, "FALSE", first.Weekend)

	second := rows[1]
	assert.Equal(t, time.June, second.SessionDate.Month())
	assert.Equal(t, 1, second.Revenue)
	assert.InDelta(t, 12.5, second.PageValues, 1e-9)

	// Every UID is distinct.
	assert.NotEqual(t, rows[0].UID, rows[1].UID)
	assert.NotEqual(t, rows[1].UID, rows[2].UID)
}

func TestParseCSVYearAssignment(t *testing.T) {
	p := testDatasetPipeline(newFakeDatasetStore())
	rows, err := p.parseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	thisYear := time.Now().UTC().Year()
	// Feb and June land in the current cycle's year, Nov in the previous.
	assert.Equal(t, thisYear, rows[0].SessionDate.Year())
	assert.Equal(t, thisYear, rows[1].SessionDate.Year())
	assert.Equal(t, thisYear-1, rows[2].SessionDate.Year())
}

func TestParseCSVMissingColumn(t *testing.T) {
	p := testDatasetPipeline(newFakeDatasetStore())
	_, err := p.parseCSV(strings.NewReader("Month,Revenue\nFeb,TRUE\n"))
	assert.Error(t, err)
}

func TestParseCSVUnknownMonth(t *testing.T) {
	p := testDatasetPipeline(newFakeDatasetStore())
	bad := strings.Replace(sampleCSV, "Feb", "Smarch", 1)
	_, err := p.parseCSV(strings.NewReader(bad))
	assert.Error(t, err)
}

func TestSynthesizeDateStaysInsideMonth(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		d := synthesizeDate(time.February, now, rng)
		assert.Equal(t, time.February, d.Month())
		assert.Equal(t, 2025, d.Year())
		assert.LessOrEqual(t, d.Day(), 28)
	}
}

func TestAppendDayDelegatesToStore(t *testing.T) {
	store := newFakeDatasetStore()
	p := testDatasetPipeline(store)

	n, err := p.AppendDay(context.Background(), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
