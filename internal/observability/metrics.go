package observability

// Metrics receives timing and outcome observations from every layer.
type Metrics interface {
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveLookup(source string, cacheMs, storeMs float64)
	ObserveBankID(op string, durMs float64, ok bool)
	ObserveCollect(status, hintCode string)
	ObserveUpsert(durMs float64)
	ObserveKafka(processMs float64, ok bool)
	IncCacheHit()
	IncCacheMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveLookup(string, float64, float64) {}
func (Noop) ObserveBankID(string, float64, bool) {}
func (Noop) ObserveCollect(string, string) {}
func (Noop) ObserveUpsert(float64) {}
func (Noop) ObserveKafka(float64, bool) {}
func (Noop) IncCacheHit() {}
func (Noop) IncCacheMiss() {}
