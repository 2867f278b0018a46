//go:build windows

package input

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"keycast/internal/keysym"
	"keycast/internal/logging"
	"keycast/internal/tracker"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL = 13
	hcAction     = 0

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// The hook procedure cannot carry state, so the one running hook is global.
var (
	activeHook   atomic.Pointer[HookSource]
	callbackOnce sync.Once
	hookCallback uintptr
)

// HookSource receives key events through a low-level keyboard hook.
type HookSource struct {
	opts Options

	mu       sync.Mutex
	running  bool
	threadID uint32
	out      chan tracker.Event
	done     chan struct{}
	dropped  atomic.Uint64
}

func newPlatformSource(opts Options) Source {
	return &HookSource{opts: opts}
}

// Available reports true; low-level hooks need no special permission.
func (h *HookSource) Available() (bool, string) {
	if err := procSetWindowsHookExW.Find(); err != nil {
		return false, fmt.Sprintf("user32 unavailable: %v", err)
	}
	return true, "low-level keyboard hook"
}

// Start installs the hook on a locked OS thread and runs its message loop.
func (h *HookSource) Start(ctx context.Context) (<-chan tracker.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil, ErrAlreadyRunning
	}
	if !activeHook.CompareAndSwap(nil, h) {
		return nil, ErrAlreadyRunning
	}

	callbackOnce.Do(func() {
		hookCallback = windows.NewCallback(keyboardProc)
	})

	h.out = make(chan tracker.Event, h.opts.Buffer)
	h.done = make(chan struct{})
	installed := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(h.done)
		defer close(h.out)
		defer activeHook.Store(nil)
		defer logging.RecoverGoroutine(h.opts.Logger, "keyboard hook")

		handle, _, err := procSetWindowsHookExW.Call(whKeyboardLL, hookCallback, 0, 0)
		if handle == 0 {
			installed <- fmt.Errorf("SetWindowsHookExW: %w", err)
			return
		}
		defer procUnhookWindowsHookEx.Call(handle)

		h.threadID = windows.GetCurrentThreadId()
		installed <- nil

		var m msg
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			// 0 is WM_QUIT, -1 is an error
			if ret == 0 || int32(ret) == -1 {
				return
			}
		}
	}()

	if err := <-installed; err != nil {
		<-h.done
		return nil, err
	}
	h.running = true

	go func() {
		select {
		case <-ctx.Done():
			h.Stop()
		case <-h.done:
		}
	}()

	return h.out, nil
}

// Stop posts WM_QUIT to the hook thread and waits for it to unhook.
func (h *HookSource) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	tid, done := h.threadID, h.done
	h.mu.Unlock()

	procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
	<-done

	if n := h.dropped.Load(); n > 0 {
		h.opts.Logger.Warn("keyboard events dropped", "count", n)
	}
	return nil
}

// deliver must not block: a slow hook procedure is removed by Windows.
func (h *HookSource) deliver(ev tracker.Event) {
	select {
	case h.out <- ev:
	default:
		h.dropped.Add(1)
	}
}

func keyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == hcAction {
		if h := activeHook.Load(); h != nil {
			kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			ev := tracker.Event{Code: keysym.Code(kb.VkCode), Time: time.Now()}
			ok := true
			switch wParam {
			case wmKeyDown:
				ev.Transition = tracker.KeyDown
			case wmKeyUp:
				ev.Transition = tracker.KeyUp
			case wmSysKeyDown:
				ev.Transition, ev.System = tracker.KeyDown, true
			case wmSysKeyUp:
				ev.Transition, ev.System = tracker.KeyUp, true
			default:
				ok = false
			}
			if ok {
				h.deliver(ev)
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}
