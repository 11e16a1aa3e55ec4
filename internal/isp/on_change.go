package isp

import "sync"

const (
	OnChangeStrategyPre              = "pre"
	OnChangeStrategyPost             = "post"
	OnChangeStrategyConcurrent       = "concurrent"
	OnChangeStrategyConcurrentNoWait = "concurrent-no-wait"
)

type sortedOnChangeCallbacks struct {
	stratPre              []OnChange
	stratConcurrent       []OnChange
	stratPost             []OnChange
	stratConcurrentNoWait []OnChange
	exists                bool
}

func sortOnChangeCallbacks(onChanges []OnChange) sortedOnChangeCallbacks {
	if len(onChanges) == 0 {
		return sortedOnChangeCallbacks{}
	}
	sorted := sortedOnChangeCallbacks{exists: true}
	for _, o := range onChanges {
		switch o.Strategy {
		case OnChangeStrategyPre, "":
			sorted.stratPre = append(sorted.stratPre, o)
		case OnChangeStrategyConcurrent:
			sorted.stratConcurrent = append(sorted.stratConcurrent, o)
		case OnChangeStrategyPost:
			sorted.stratPost = append(sorted.stratPost, o)
		case OnChangeStrategyConcurrentNoWait:
			sorted.stratConcurrentNoWait = append(sorted.stratConcurrentNoWait, o)
		}
	}
	return sorted
}

// runConcurrentOnChangeCallbacks runs every applicable callback for every
// changed path in its own goroutine.
func (c *Config) runConcurrentOnChangeCallbacks(onChanges []OnChange, paths []string, shouldWait bool) {
	if len(onChanges) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, o := range onChanges {
		excluded := c.rootedPatterns(o.ExcludedPatterns)
		for _, path := range paths {
			if c.getIsIgnored(path, excluded) {
				continue
			}
			wg.Add(1)
			go func(o OnChange, path string) {
				defer wg.Done()
				if err := o.Func(path); err != nil {
					c.Logger.Errorf("error running onChange callback: %v", err)
				}
			}(o, path)
		}
	}
	if shouldWait {
		wg.Wait()
	}
}

func (c *Config) simpleRunOnChangeCallbacks(onChanges []OnChange, paths []string) {
	for _, o := range onChanges {
		excluded := c.rootedPatterns(o.ExcludedPatterns)
		for _, path := range paths {
			if c.getIsIgnored(path, excluded) {
				continue
			}
			if err := o.Func(path); err != nil {
				c.Logger.Errorf("error running onChange callback: %v", err)
			}
		}
	}
}
