package analytics

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamikara/rachana/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func record(id, studentID string, uploadedAt time.Time, score *float64) domain.UploadRecord {
	return domain.UploadRecord{
		ID:         id,
		StudentID:  studentID,
		UploadedAt: uploadedAt,
		Score:      score,
	}
}

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestAggregateByStudent_EmptyInput(t *testing.T) {
	summaries, err := AggregateByStudent(nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	summaries, err = AggregateByStudent([]domain.UploadRecord{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestAggregateByStudent_SingleRecord(t *testing.T) {
	summaries, err := AggregateByStudent([]domain.UploadRecord{
		record("r1", "S1", baseTime, fptr(72)),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "S1", s.StudentID)
	assert.Equal(t, 1, s.EssayCount)
	assert.Equal(t, 1, s.ScoredCount)
	require.NotNil(t, s.AverageScore)
	assert.Equal(t, 72.0, *s.AverageScore)
	assert.True(t, s.LastUploadDate.Equal(baseTime))
}

func TestAggregateByStudent_RunningAverage(t *testing.T) {
	// Three records for S1 with scores [80, nil, 90] at t1 < t2 < t3.
	t1, t2, t3 := baseTime, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour)
	summaries, err := AggregateByStudent([]domain.UploadRecord{
		record("r1", "S1", t1, fptr(80)),
		record("r2", "S1", t2, nil),
		record("r3", "S1", t3, fptr(90)),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 3, s.EssayCount)
	assert.Equal(t, 2, s.ScoredCount)
	require.NotNil(t, s.AverageScore)
	assert.Equal(t, 85.0, *s.AverageScore)
	assert.True(t, s.LastUploadDate.Equal(t3))
	require.Len(t, s.Essays, 3)
	assert.Equal(t, []string{"r1", "r2", "r3"}, []string{s.Essays[0].ID, s.Essays[1].ID, s.Essays[2].ID},
		"essays must preserve input order")
}

func TestAggregateByStudent_SortedByLastUpload(t *testing.T) {
	// S2 uploaded later than S1, so S2's summary comes first.
	summaries, err := AggregateByStudent([]domain.UploadRecord{
		record("r1", "S1", baseTime, fptr(70)),
		record("r2", "S2", baseTime.Add(time.Hour), fptr(95)),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "S2", summaries[0].StudentID)
	assert.Equal(t, "S1", summaries[1].StudentID)
}

func TestAggregateByStudent_AverageRounding(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{name: "repeating third rounds half up", scores: []float64{70, 70, 71}, expected: 70.33},
		{name: "two thirds rounds up", scores: []float64{70, 71, 71}, expected: 70.67},
		{name: "exact mean untouched", scores: []float64{80, 90}, expected: 85},
		{name: "half rounds up not to even", scores: []float64{2.675}, expected: 2.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]domain.UploadRecord, len(tt.scores))
			for i, sc := range tt.scores {
				records[i] = record("r", "S1", baseTime.Add(time.Duration(i)*time.Minute), fptr(sc))
			}

			summaries, err := AggregateByStudent(records)
			require.NoError(t, err)
			require.Len(t, summaries, 1)
			require.NotNil(t, summaries[0].AverageScore)
			assert.InDelta(t, tt.expected, *summaries[0].AverageScore, 1e-9)
		})
	}
}

// The final average must not depend on the order scores are folded in,
// only the intermediate running values may differ.
func TestAggregateByStudent_OrderIndependentAverage(t *testing.T) {
	scores := []float64{55.5, 61, 74.25, 88, 90.5, 67, 43.75}
	records := make([]domain.UploadRecord, len(scores))
	for i, sc := range scores {
		records[i] = record("r", "S1", baseTime.Add(time.Duration(i)*time.Minute), fptr(sc))
	}

	first, err := AggregateByStudent(records)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]domain.UploadRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := AggregateByStudent(shuffled)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, *first[0].AverageScore, *got[0].AverageScore, 1e-9)
	}
}

// Every record lands in exactly one summary and the scored counts match
// the records that actually carry scores.
func TestAggregateByStudent_CountInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	students := []string{"S1", "S2", "S3", "S4"}

	records := make([]domain.UploadRecord, 0, 60)
	for i := 0; i < 60; i++ {
		var score *float64
		if rng.Intn(2) == 0 {
			score = fptr(float64(rng.Intn(101)))
		}
		records = append(records, record(
			"r", students[rng.Intn(len(students))],
			baseTime.Add(time.Duration(rng.Intn(10000))*time.Second), score))
	}

	summaries, err := AggregateByStudent(records)
	require.NoError(t, err)

	total := 0
	for _, s := range summaries {
		total += s.EssayCount
		assert.Equal(t, s.EssayCount, len(s.Essays))
		assert.LessOrEqual(t, s.ScoredCount, s.EssayCount)

		scored := 0
		var maxAt time.Time
		for _, e := range s.Essays {
			if e.Scored() {
				scored++
			}
			if e.UploadedAt.After(maxAt) {
				maxAt = e.UploadedAt
			}
		}
		assert.Equal(t, scored, s.ScoredCount)
		assert.True(t, s.LastUploadDate.Equal(maxAt))

		if s.ScoredCount == 0 {
			assert.Nil(t, s.AverageScore)
		} else {
			assert.NotNil(t, s.AverageScore)
		}
	}
	assert.Equal(t, len(records), total)
}

func TestAggregateByStudent_Idempotent(t *testing.T) {
	records := []domain.UploadRecord{
		record("r1", "S1", baseTime, fptr(80)),
		record("r2", "S2", baseTime.Add(time.Minute), nil),
		record("r3", "S1", baseTime.Add(2*time.Minute), fptr(90)),
	}

	first, err := AggregateByStudent(records)
	require.NoError(t, err)
	second, err := AggregateByStudent(records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateByStudent_DoesNotMutateInput(t *testing.T) {
	records := []domain.UploadRecord{
		record("r2", "S2", baseTime.Add(time.Hour), fptr(60)),
		record("r1", "S1", baseTime, fptr(80)),
	}
	snapshot := make([]domain.UploadRecord, len(records))
	copy(snapshot, records)

	_, err := AggregateByStudent(records)
	require.NoError(t, err)
	assert.Equal(t, snapshot, records)
}

func TestStudentAggregator_InvalidRecordPolicies(t *testing.T) {
	valid := record("r1", "S1", baseTime, fptr(50))
	missingID := record("r2", "", baseTime, nil)
	missingTime := record("r3", "S2", time.Time{}, nil)

	t.Run("strict rejects with field context", func(t *testing.T) {
		agg, err := NewStudentAggregator(DefaultAggregatorConfig())
		require.NoError(t, err)

		_, err = agg.Aggregate([]domain.UploadRecord{valid, missingID})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidRecord))

		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "student_id", vErr.Field)
		assert.Equal(t, "r2", vErr.RecordID)

		_, err = agg.Aggregate([]domain.UploadRecord{missingTime})
		require.Error(t, err)
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "uploaded_at", vErr.Field)
	})

	t.Run("skip drops invalid records and continues", func(t *testing.T) {
		cfg := DefaultAggregatorConfig()
		cfg.InvalidRecords = PolicySkip
		agg, err := NewStudentAggregator(cfg)
		require.NoError(t, err)

		summaries, err := agg.Aggregate([]domain.UploadRecord{missingID, valid, missingTime})
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "S1", summaries[0].StudentID)
	})
}

func TestStudentAggregator_AttributePolicies(t *testing.T) {
	first := record("r1", "S1", baseTime, nil)
	first.StudentName = "Nimal"
	first.StudentAge = 11
	first.StudentGrade = "6"

	second := record("r2", "S1", baseTime.Add(time.Hour), nil)
	second.StudentName = "Nimal P."
	second.StudentAge = 12
	second.StudentGrade = "7"

	t.Run("first seen wins by default", func(t *testing.T) {
		agg, err := NewStudentAggregator(DefaultAggregatorConfig())
		require.NoError(t, err)

		summaries, err := agg.Aggregate([]domain.UploadRecord{first, second})
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Nimal", summaries[0].StudentName)
		assert.Equal(t, 11, summaries[0].StudentAge)
		assert.Equal(t, "6", summaries[0].StudentGrade)
	})

	t.Run("last seen overwrites", func(t *testing.T) {
		cfg := DefaultAggregatorConfig()
		cfg.Attributes = AttrLastSeen
		agg, err := NewStudentAggregator(cfg)
		require.NoError(t, err)

		summaries, err := agg.Aggregate([]domain.UploadRecord{first, second})
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Nimal P.", summaries[0].StudentName)
		assert.Equal(t, 12, summaries[0].StudentAge)
		assert.Equal(t, "7", summaries[0].StudentGrade)
	})
}

func TestNewStudentAggregator_RejectsInvalidConfig(t *testing.T) {
	_, err := NewStudentAggregator(AggregatorConfig{
		InvalidRecords: "lenient-ish",
		Attributes:     AttrFirstSeen,
		RoundPlaces:    2,
	})
	assert.Error(t, err)

	_, err = NewStudentAggregator(AggregatorConfig{
		InvalidRecords: PolicyStrict,
		Attributes:     AttrFirstSeen,
		RoundPlaces:    9,
	})
	assert.Error(t, err)
}
