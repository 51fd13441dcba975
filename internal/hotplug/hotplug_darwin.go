package hotplug

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// CoreFoundation and IOKit handles.
type (
	cfAllocatorRef   uintptr
	cfIndex          int64
	cfNumberRef      uintptr
	cfRunLoopRef     uintptr
	cfStringRef      uintptr
	cfTypeRef        uintptr
	cfStringEncoding uint32

	hidDeviceRef  uintptr
	hidManagerRef uintptr
	ioOptionBits  uint32
	ioReturn      int32
)

const (
	cfAllocatorDefault   cfAllocatorRef   = 0
	cfNumberSInt16Type   cfIndex          = 2
	cfStringEncodingUTF8 cfStringEncoding = 0x08000100

	hidOptionsNone ioOptionBits = 0
	ioSuccess      ioReturn     = 0
)

var (
	cfNumberGetValue        func(number cfNumberRef, theType cfIndex, valuePtr unsafe.Pointer) bool
	cfRunLoopGetCurrent     func() cfRunLoopRef
	cfRunLoopRun            func()
	cfStringCreateWithBytes func(alloc cfAllocatorRef, bytes []byte, numBytes cfIndex, encoding cfStringEncoding, external bool) cfStringRef

	hidDeviceGetProperty              func(device hidDeviceRef, key cfStringRef) cfTypeRef
	hidManagerCreate                  func(allocator cfAllocatorRef, options ioOptionBits) hidManagerRef
	hidManagerOpen                    func(manager hidManagerRef, options ioOptionBits) ioReturn
	hidManagerSetDeviceMatching       func(manager hidManagerRef, matching uintptr)
	hidManagerRegisterMatchedCallback func(manager hidManagerRef, callback uintptr, context unsafe.Pointer)
	hidManagerScheduleWithRunLoop     func(manager hidManagerRef, runLoop cfRunLoopRef, mode cfStringRef)

	runLoopDefaultMode uintptr
	vendorIDKey        cfStringRef
)

// loadFrameworks binds the CoreFoundation and IOKit calls used here.
func loadFrameworks() error {
	cf, err := purego.Dlopen("/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("loading CoreFoundation: %w", err)
	}
	purego.RegisterLibFunc(&cfNumberGetValue, cf, "CFNumberGetValue")
	purego.RegisterLibFunc(&cfRunLoopGetCurrent, cf, "CFRunLoopGetCurrent")
	purego.RegisterLibFunc(&cfRunLoopRun, cf, "CFRunLoopRun")
	purego.RegisterLibFunc(&cfStringCreateWithBytes, cf, "CFStringCreateWithBytes")
	if runLoopDefaultMode, err = purego.Dlsym(cf, "kCFRunLoopDefaultMode"); err != nil {
		return fmt.Errorf("loading kCFRunLoopDefaultMode: %w", err)
	}

	iokit, err := purego.Dlopen("/System/Library/Frameworks/IOKit.framework/IOKit", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("loading IOKit: %w", err)
	}
	purego.RegisterLibFunc(&hidDeviceGetProperty, iokit, "IOHIDDeviceGetProperty")
	purego.RegisterLibFunc(&hidManagerCreate, iokit, "IOHIDManagerCreate")
	purego.RegisterLibFunc(&hidManagerOpen, iokit, "IOHIDManagerOpen")
	purego.RegisterLibFunc(&hidManagerSetDeviceMatching, iokit, "IOHIDManagerSetDeviceMatching")
	purego.RegisterLibFunc(&hidManagerRegisterMatchedCallback, iokit, "IOHIDManagerRegisterDeviceMatchingCallback")
	purego.RegisterLibFunc(&hidManagerScheduleWithRunLoop, iokit, "IOHIDManagerScheduleWithRunLoop")

	key := []byte("VendorID")
	vendorIDKey = cfStringCreateWithBytes(cfAllocatorDefault, key, cfIndex(len(key)), cfStringEncodingUTF8, false)
	if vendorIDKey == 0 {
		return fmt.Errorf("creating VendorID key")
	}
	return nil
}

// One HID manager serves every watcher. It runs on its own locked thread for
// the life of the process; watchers come and go.
var (
	startOnce sync.Once
	startErr  error

	mu       sync.Mutex
	watchers = map[*watcher]struct{}{}

	matchedCallback uintptr
)

type watcher struct {
	vendorID uint16
	ch       chan struct{}
}

// deviceMatched runs on the run loop thread for every HID interface present
// at startup and every one that arrives later.
func deviceMatched(_ unsafe.Pointer, _ ioReturn, _ uintptr, device hidDeviceRef) {
	vid, ok := vendorID(device)
	if !ok {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	for w := range watchers {
		if w.vendorID != vid {
			continue
		}
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
}

func vendorID(device hidDeviceRef) (uint16, bool) {
	prop := hidDeviceGetProperty(device, vendorIDKey)
	if prop == 0 {
		return 0, false
	}
	var vid uint16
	if !cfNumberGetValue(cfNumberRef(prop), cfNumberSInt16Type, unsafe.Pointer(&vid)) {
		return 0, false
	}
	return vid, true
}

func start() error {
	if err := loadFrameworks(); err != nil {
		return err
	}
	matchedCallback = purego.NewCallback(deviceMatched)

	ready := make(chan error, 1)
	go func() {
		runtime.LockOSThread()

		mgr := hidManagerCreate(cfAllocatorDefault, hidOptionsNone)
		if rv := hidManagerOpen(mgr, hidOptionsNone); rv != ioSuccess {
			ready <- fmt.Errorf("opening IOHIDManager: 0x%08x", uint32(rv))
			return
		}
		// Match every HID device; vendors are filtered in the callback.
		hidManagerSetDeviceMatching(mgr, 0)

		rl := cfRunLoopGetCurrent()
		hidManagerScheduleWithRunLoop(mgr, rl, **(**cfStringRef)(unsafe.Pointer(&runLoopDefaultMode)))
		hidManagerRegisterMatchedCallback(mgr, matchedCallback, nil)
		ready <- nil

		slog.Debug("Listening for USB HID arrivals")
		cfRunLoopRun()
	}()
	return <-ready
}

// Watch returns a channel signalled each time a USB HID interface with the
// given vendor ID appears, including those already attached when the
// first watcher starts. The channel is closed when ctx is done. If IOKit is
// unavailable the channel only closes.
func Watch(ctx context.Context, vendorID uint16) <-chan struct{} {
	w := &watcher{vendorID: vendorID, ch: make(chan struct{}, 1)}

	startOnce.Do(func() { startErr = start() })
	if startErr != nil {
		slog.Warn("USB hotplug notifications unavailable", "err", startErr)
	} else {
		mu.Lock()
		watchers[w] = struct{}{}
		mu.Unlock()
	}

	go func() {
		<-ctx.Done()
		mu.Lock()
		delete(watchers, w)
		close(w.ch)
		mu.Unlock()
	}()
	return w.ch
}
