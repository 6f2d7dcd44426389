package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_SubscribeReceivesCurrentAndUpdates(t *testing.T) {
	v := NewValue(false)

	var seen []bool
	unsubscribe := v.Subscribe(func(b bool) { seen = append(seen, b) })

	v.Set(true)
	v.Set(false)
	unsubscribe()
	v.Set(true)

	assert.Equal(t, []bool{false, true, false}, seen)
	assert.True(t, v.Get())
}

func TestValue_NotifiesInSubscriptionOrder(t *testing.T) {
	v := NewValue("")

	var order []string
	v.Subscribe(func(s string) { order = append(order, "a:"+s) })
	v.Subscribe(func(s string) { order = append(order, "b:"+s) })

	order = nil
	v.Set("x")
	assert.Equal(t, []string{"a:x", "b:x"}, order)
}

func TestValue_UnsubscribeIsIdempotent(t *testing.T) {
	v := NewValue(0)
	first := v.Subscribe(func(int) {})
	v.Subscribe(func(int) {})
	assert.Equal(t, 2, v.Subscribers())

	first()
	first()
	assert.Equal(t, 1, v.Subscribers())
}

func TestValue_SubscriberMaySetFromCallback(t *testing.T) {
	v := NewValue(0)
	mirror := NewValue(0)
	v.Subscribe(func(n int) { mirror.Set(n * 2) })

	v.Set(21)
	assert.Equal(t, 42, mirror.Get())
}

func TestValue_Update(t *testing.T) {
	v := NewValue(1)
	v.Update(func(n int) int { return n + 1 })
	assert.Equal(t, 2, v.Get())
}

func TestValue_PointerValues(t *testing.T) {
	type user struct{ name string }
	v := NewValue[*user](nil)
	assert.Nil(t, v.Get())

	v.Set(&user{name: "ada"})
	assert.Equal(t, "ada", v.Get().name)

	v.Set(nil)
	assert.Nil(t, v.Get())
}

func TestValue_ConcurrentSet(t *testing.T) {
	v := NewValue(0)
	var mu sync.Mutex
	calls := 0
	v.Subscribe(func(int) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 51, calls)
}
