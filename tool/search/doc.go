// Package search provides the internet search tool used by research agents
// and the backends behind it. The tool caps every response at MaxResults by
// truncation; backends only translate a query into provider HTTP calls and
// map provider failures onto the core error taxonomy.
package search
