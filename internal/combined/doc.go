// Package combined provides interaction benchmarks that test the token
// together with the components it is typically wired to.
//
// These benchmarks are more representative of real-world performance
// than isolated micro-benchmarks, as they capture the cumulative cost
// of a worker loop polling the token, a context bridged to the token,
// and a cancel fan-out that reports into a shared queue.
package combined
