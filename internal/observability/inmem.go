package observability

import "sync"

type observe struct {
	Kind     string  `json:"kind"`
	Source   string  `json:"source,omitempty"`
	Method   string  `json:"method,omitempty"`
	Route    string  `json:"route,omitempty"`
	Op       string  `json:"op,omitempty"`
	Status   string  `json:"status,omitempty"`
	HintCode string  `json:"hintCode,omitempty"`
	Code     int     `json:"code,omitempty"`
	DurMs    float64 `json:"durMs,omitempty"`
	CacheMs  float64 `json:"cacheMs,omitempty"`
	StoreMs  float64 `json:"storeMs,omitempty"`
	OK       bool    `json:"ok"`
}

// Inmem keeps the last max observations and running totals.
type Inmem struct {
	mu     sync.Mutex
	last   []*observe
	max    int
	totals struct {
		cacheHits, cacheMiss int
		bankIDErrors         int
		collects             map[string]int
	}
}

type Snapshot struct {
	CacheHits    int            `json:"cacheHits"`
	CacheMisses  int            `json:"cacheMisses"`
	BankIDErrors int            `json:"bankIdErrors"`
	Collects     map[string]int `json:"collects"`
	Last         []observe      `json:"last"`
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v *observe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(&observe{Kind: "http", Method: method, Route: route, Code: status, DurMs: durMs, OK: status < 500})
}

func (m *Inmem) ObserveLookup(source string, cacheMs, storeMs float64) {
	m.push(&observe{Kind: "lookup", Source: source, CacheMs: cacheMs, StoreMs: storeMs, OK: true})
}

func (m *Inmem) ObserveBankID(op string, durMs float64, ok bool) {
	if !ok {
		m.mu.Lock()
		m.totals.bankIDErrors++
		m.mu.Unlock()
	}
	m.push(&observe{Kind: "bankid", Op: op, DurMs: durMs, OK: ok})
}

func (m *Inmem) ObserveCollect(status, hintCode string) {
	m.mu.Lock()
	if m.totals.collects == nil {
		m.totals.collects = make(map[string]int)
	}
	m.totals.collects[status]++
	m.mu.Unlock()
	m.push(&observe{Kind: "collect", Status: status, HintCode: hintCode, OK: true})
}

func (m *Inmem) ObserveUpsert(durMs float64) {
	m.push(&observe{Kind: "upsert", DurMs: durMs, OK: true})
}

func (m *Inmem) ObserveKafka(processMs float64, ok bool) {
	m.push(&observe{Kind: "kafka", DurMs: processMs, OK: ok})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.cacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.cacheMiss++
	m.mu.Unlock()
}

func (m *Inmem) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		CacheHits:    m.totals.cacheHits,
		CacheMisses:  m.totals.cacheMiss,
		BankIDErrors: m.totals.bankIDErrors,
		Collects:     make(map[string]int, len(m.totals.collects)),
		Last:         make([]observe, 0, len(m.last)),
	}
	for k, v := range m.totals.collects {
		s.Collects[k] = v
	}
	for _, o := range m.last {
		s.Last = append(s.Last, *o)
	}
	return s
}
