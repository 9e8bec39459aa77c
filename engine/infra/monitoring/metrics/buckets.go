package metrics

// APIDurationBuckets defines latency buckets for upstream API request duration metrics.
var APIDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// FetchAllDurationBuckets covers complete paginated traversals, which span many requests.
var FetchAllDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
