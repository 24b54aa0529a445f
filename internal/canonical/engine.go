// ABOUTME: Canonicalization engine resolving multi-producer redundancy.
// ABOUTME: Native records win contestable hour buckets; exclusive metrics are never touched.
package canonical

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/harperreed/healthhub/internal/storage"
)

// TimeRange bounds a canonicalization pass. Zero values mean unbounded.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Result summarizes one canonicalization pass.
type Result struct {
	// UpdatedCount is the number of records whose canonical flag changed.
	// A second consecutive run with no new data yields zero.
	UpdatedCount int
	// BucketsExamined counts the (metricType, hour) groups inspected.
	BucketsExamined int
}

// Engine decides, per (metricType, hour bucket), which records are
// authoritative. It holds no data state of its own; all state lives in the
// store. Runs for the same user are serialized by a keyed lock; runs for
// different users proceed in parallel.
type Engine struct {
	store  storage.Repository
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a canonicalization engine. It validates the registry up
// front: an inconsistent metric classification is a configuration error, not
// something to discover mid-batch.
func NewEngine(store storage.Repository, logger *log.Logger) (*Engine, error) {
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("registry validation: %w", err)
	}
	return &Engine{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// userLock returns the per-user mutex, creating it on first use.
func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// RunCheck canonicalizes the given metric types for one user. Ingestion
// passes just the metric types a batch touched; an empty slice means a full
// rescan across every registered metric type, which is what the standalone
// canonicalize command relies on after a bulk import.
// It is idempotent: flags are only written when they differ from the desired
// state, so running twice in a row produces zero additional updates.
func (e *Engine) RunCheck(ctx context.Context, userID string, metricTypes []registry.MetricType, window *TimeRange) (Result, error) {
	if len(metricTypes) == 0 {
		metricTypes = registry.AllMetricTypes()
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var result Result
	var demote, promote []uuid.UUID

	for _, mt := range metricTypes {
		// Metric types exclusive to third-party producers are always
		// canonical; the engine must never mark them otherwise.
		if !registry.Contestable(mt) {
			continue
		}

		filter := storage.RecordFilter{
			UserID:              userID,
			MetricTypes:         []registry.MetricType{mt},
			IncludeNonCanonical: true,
		}
		if window != nil {
			filter.Start = window.Start
			filter.End = window.End
		}

		records, err := e.store.ListRecords(ctx, filter)
		if err != nil {
			return result, fmt.Errorf("load %s records: %w", mt, err)
		}

		buckets := groupByHour(records)
		result.BucketsExamined += len(buckets)

		for _, bucket := range buckets {
			d, p := resolveBucket(bucket)
			demote = append(demote, d...)
			promote = append(promote, p...)
		}
	}

	if len(demote) > 0 {
		n, err := e.store.SetCanonicalFlags(ctx, demote, false)
		if err != nil {
			return result, fmt.Errorf("demote records: %w", err)
		}
		result.UpdatedCount += n
	}
	if len(promote) > 0 {
		n, err := e.store.SetCanonicalFlags(ctx, promote, true)
		if err != nil {
			return result, fmt.Errorf("promote records: %w", err)
		}
		result.UpdatedCount += n
	}

	if result.UpdatedCount > 0 {
		e.logger.Info("canonicalization pass complete",
			"user", userID,
			"buckets", result.BucketsExamined,
			"updated", result.UpdatedCount)
	}

	return result, nil
}

// groupByHour groups records by the top of the wall-clock hour containing
// recorded_at. Buckets never span an hour boundary: 12:59 and 13:01 land in
// different buckets even though two minutes apart. This is a deliberate,
// documented simplification.
func groupByHour(records []*models.MeasurementRecord) map[time.Time][]*models.MeasurementRecord {
	buckets := make(map[time.Time][]*models.MeasurementRecord)
	for _, r := range records {
		b := r.HourBucket()
		buckets[b] = append(buckets[b], r)
	}
	return buckets
}

// resolveBucket applies the native-priority policy to one hour bucket and
// returns the ids whose flag must change. If any record in the bucket comes
// from a device-native producer, every non-native record is non-canonical;
// otherwise everything in the bucket is canonical.
func resolveBucket(bucket []*models.MeasurementRecord) (demote, promote []uuid.UUID) {
	hasNative := false
	for _, r := range bucket {
		if registry.IsNativeProducer(r.Producer) {
			hasNative = true
			break
		}
	}

	for _, r := range bucket {
		want := true
		if hasNative && !registry.IsNativeProducer(r.Producer) {
			want = false
		}
		if want == r.IsCanonical {
			continue
		}
		if want {
			promote = append(promote, r.ID)
		} else {
			demote = append(demote, r.ID)
		}
	}
	return demote, promote
}
