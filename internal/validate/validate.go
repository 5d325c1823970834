package validate

import (
	"container/list"
	"sync"

	"CoreBridge/internal/domain/models"
	"CoreBridge/internal/domain/repository"
	"CoreBridge/pkg/logger"
	"CoreBridge/pkg/util"
)

// DuplicateChecker drops records whose key field was already seen. The seen
// set is a bounded LRU so memory stays flat no matter how long the process
// runs; once capacity is reached the oldest keys age out and may recur.
type DuplicateChecker struct {
	mu       sync.Mutex
	keyField string
	capacity int
	order    *list.List
	index    map[string]*list.Element
	logger   *logger.Logger
	metrics  repository.Metrics
}

func NewDuplicateChecker(keyField string, capacity int, lgr *logger.Logger, m repository.Metrics) *DuplicateChecker {
	if capacity <= 0 {
		capacity = 10000
	}
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &DuplicateChecker{
		keyField: keyField,
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
		logger:   lgr,
		metrics:  m,
	}
}

// Validate filters out records already seen by key. Records without the key
// field pass through; identity enforcement is the transformers' job.
func (d *DuplicateChecker) Validate(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		key := util.Stringify(rec.ToMap()[d.keyField])
		if key == "" {
			out = append(out, rec)
			continue
		}
		if d.seen(key) {
			d.logger.Debug("duplicate record dropped", logger.String(d.keyField, key))
			d.metrics.RecordDropped("validate", "duplicate")
			continue
		}
		out = append(out, rec)
	}
	return out
}

// seen records the key and reports whether it was already present. Re-seeing
// a key refreshes its recency.
func (d *DuplicateChecker) seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.index[key]; ok {
		d.order.MoveToFront(el)
		return true
	}

	d.index[key] = d.order.PushFront(key)
	if d.order.Len() > d.capacity {
		oldest := d.order.Back()
		d.order.Remove(oldest)
		delete(d.index, oldest.Value.(string))
	}
	return false
}

// Len reports how many keys are currently tracked.
func (d *DuplicateChecker) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}

// DataQualityValidator drops records missing any of the required fields or
// carrying empty values for them.
type DataQualityValidator struct {
	required []string
	logger   *logger.Logger
	metrics  repository.Metrics
}

func NewDataQualityValidator(lgr *logger.Logger, m repository.Metrics, required ...string) *DataQualityValidator {
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &DataQualityValidator{required: required, logger: lgr, metrics: m}
}

func (v *DataQualityValidator) Validate(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		data := rec.ToMap()
		missing := ""
		for _, field := range v.required {
			if util.Stringify(data[field]) == "" {
				missing = field
				break
			}
		}
		if missing != "" {
			v.logger.Debug("record failed quality check", logger.String("missing_field", missing))
			v.metrics.RecordDropped("validate", "missing_"+missing)
			continue
		}
		out = append(out, rec)
	}
	return out
}
