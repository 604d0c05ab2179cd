package utils

import (
	"sync"
)

// ParallelMap 以最多 workers 个 goroutine 并发执行 fn，结果与输入顺序一一对应。
// 输入不超过 1 条或 workers <= 1 时在当前 goroutine 中顺序执行。
func ParallelMap[T any, R any](input []T, workers int, fn func(T) R) []R {
	result := make([]R, len(input))
	if len(input) == 0 {
		return result
	}
	if len(input) == 1 || workers <= 1 {
		for i, v := range input {
			result[i] = fn(v)
		}
		return result
	}
	if workers > len(input) {
		workers = len(input)
	}

	var wg sync.WaitGroup
	jobs := make(chan int, len(input))
	for i := range input {
		jobs <- i
	}
	close(jobs)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				result[i] = fn(input[i])
			}
		}()
	}
	wg.Wait()
	return result
}
