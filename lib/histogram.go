package lib

import "fmt"
import "math"
import "sort"
import "strconv"
import "strings"

// HistogramInt64 statistical histogram of int64 samples, bucketed
// between [from, till) in steps of width. Samples outside the range
// fall into the first and last bucket.
type HistogramInt64 struct {
	n       int64
	minval  int64
	maxval  int64
	sum     int64
	sumsq   float64
	buckets []int64
	// setup
	seeded bool
	from   int64
	till   int64
	width  int64
}

// NewhistorgramInt64 return a new histogram object.
func NewhistorgramInt64(from, till, width int64) *HistogramInt64 {
	from, till = (from/width)*width, (till/width)*width
	h := &HistogramInt64{from: from, till: till, width: width}
	h.buckets = make([]int64, ((till-from)/width)+2)
	return h
}

// Add a sample to this histogram.
func (h *HistogramInt64) Add(sample int64) {
	h.n, h.sum = h.n+1, h.sum+sample
	f := float64(sample)
	h.sumsq += f * f
	if h.seeded == false || sample < h.minval {
		h.minval, h.seeded = sample, true
	}
	if h.maxval < sample {
		h.maxval = sample
	}
	switch {
	case sample < h.from:
		h.buckets[0]++
	case sample >= h.till:
		h.buckets[len(h.buckets)-1]++
	default:
		h.buckets[((sample-h.from)/h.width)+1]++
	}
}

// Samples return number of samples added so far.
func (h *HistogramInt64) Samples() int64 {
	return h.n
}

// Min return the smallest sample.
func (h *HistogramInt64) Min() int64 {
	return h.minval
}

// Max return the largest sample.
func (h *HistogramInt64) Max() int64 {
	return h.maxval
}

// Sum return the sum of all samples.
func (h *HistogramInt64) Sum() int64 {
	return h.sum
}

// Mean return the average of all samples.
func (h *HistogramInt64) Mean() int64 {
	if h.n == 0 {
		return 0
	}
	return int64(float64(h.sum) / float64(h.n))
}

// Variance return the squared deviation of samples from the mean.
func (h *HistogramInt64) Variance() int64 {
	if h.n == 0 {
		return 0
	}
	nF, meanF := float64(h.n), float64(h.Mean())
	return int64((h.sumsq / nF) - (meanF * meanF))
}

// SD return the standard deviation of samples from the mean.
func (h *HistogramInt64) SD() int64 {
	return int64(math.Sqrt(float64(h.Variance())))
}

// Fullstats return a map of histogram statistics that can be folded
// into a resource's Stats() map.
func (h *HistogramInt64) Fullstats() map[string]interface{} {
	hmap := make(map[string]interface{})
	for i, count := range h.buckets {
		if count == 0 {
			continue
		}
		key := "+"
		if i < len(h.buckets)-1 {
			key = strconv.Itoa(int(h.from + int64(i-1)*h.width))
		}
		hmap[key] = count
	}
	return map[string]interface{}{
		"samples":     h.Samples(),
		"min":         h.Min(),
		"max":         h.Max(),
		"mean":        h.Mean(),
		"variance":    h.Variance(),
		"stddeviance": h.SD(),
		"histogram":   hmap,
	}
}

// Logstring return Fullstats as a loggable string.
func (h *HistogramInt64) Logstring() string {
	stats := h.Fullstats()
	keys := []string{}
	for k := range stats {
		if k != "histogram" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	ss := []string{}
	for _, key := range keys {
		ss = append(ss, fmt.Sprintf(`"%v": %v`, key, stats[key]))
	}
	histogram := stats["histogram"].(map[string]interface{})
	hkeys := []int{}
	for k := range histogram {
		if k == "+" {
			continue
		}
		n, _ := strconv.Atoi(k)
		hkeys = append(hkeys, n)
	}
	sort.Ints(hkeys)
	hs := []string{}
	for _, k := range hkeys {
		ks := strconv.Itoa(k)
		hs = append(hs, fmt.Sprintf(`"%v": %v`, ks, histogram[ks]))
	}
	if count, ok := histogram["+"]; ok {
		hs = append(hs, fmt.Sprintf(`"+": %v`, count))
	}
	ss = append(ss, `"histogram": {`+strings.Join(hs, ",")+`}`)
	return "{" + strings.Join(ss, ",") + "}"
}
