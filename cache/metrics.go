package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fileconn_cache_hits_total",
		Help: "Number of reads served from the cache",
	},
	[]string{"cache"})

var cacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fileconn_cache_misses_total",
		Help: "Number of reads computed on a cache miss",
	},
	[]string{"cache"})
