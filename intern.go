package rbregexp

import (
	"sync"

	"go.dw1.io/fastcache"

	"go.dw1.io/rbregexp/config"
	"go.dw1.io/rbregexp/flags"
)

const internCapacity = 4096

var (
	internOnce  sync.Once
	internCache *fastcache.Cache[string, *Regexp]
	internMu    sync.Mutex
)

func getInternCache() *fastcache.Cache[string, *Regexp] {
	internOnce.Do(func() {
		internCache = fastcache.New[string, *Regexp](internCapacity)
	})

	return internCache
}

// Intern returns a shared Regexp for a pattern literal, so a literal that
// is evaluated repeatedly compiles once. Equal inputs return the same
// value while it stays cached. Interned values use the default engines and
// ignore Release.
func Intern(pattern []byte, opts flags.Options, enc flags.Encoding) (*Regexp, error) {
	key := config.NewSource(pattern, opts, enc).Key()
	cache := getInternCache()
	if re, found := cache.Get(key); found {
		return re, nil
	}

	internMu.Lock()
	defer internMu.Unlock()

	if re, found := cache.Get(key); found {
		return re, nil
	}
	re, err := New(pattern, opts, enc)
	if err != nil {
		return nil, err
	}
	re.interned = true
	cache.Set(key, re)
	return re, nil
}
