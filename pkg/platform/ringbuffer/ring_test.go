package ringbuffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnqueueEvictsOldest(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Enqueue(i)
	}
	assert.Equal(t, []int{3, 4, 5}, b.Snapshot())
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, int64(2), b.Dropped())
}

func TestDequeueBatch(t *testing.T) {
	b := New[string](4)
	b.Enqueue("a")
	b.Enqueue("b")
	b.Enqueue("c")

	assert.Equal(t, []string{"a", "b"}, b.DequeueBatch(2))
	assert.Equal(t, []string{"c"}, b.DequeueBatch(10))
	assert.Nil(t, b.DequeueBatch(1))
}

func TestReplaceKeepsNewest(t *testing.T) {
	b := New[int](2)
	b.Enqueue(9)
	b.Replace([]int{1, 2, 3})
	assert.Equal(t, []int{2, 3}, b.Snapshot())
	assert.Equal(t, int64(0), b.Dropped())
}

func TestDefaultCapacity(t *testing.T) {
	assert.Equal(t, 1000, New[int](0).Cap())
}

func TestConcurrentEnqueue(t *testing.T) {
	b := New[int](100)
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			for j := range 50 {
				b.Enqueue(i*50 + j)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 100, b.Len())
	assert.Equal(t, int64(400), b.Dropped())
}
