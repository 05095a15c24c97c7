//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/rigkit/rigkit/internal/editor"
	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/selection"
)

var (
	ed    *editor.Editor
	queue = &editor.Queue{}
)

func main() {
	var err error
	ed, err = editor.New(editor.DefaultOptions(), queue)
	if err != nil {
		js.Global().Get("console").Call("error", "rigkit: "+err.Error())
		return
	}

	// Create the editor API object
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("addBody", js.FuncOf(addBody))
	api.Set("addContainer", js.FuncOf(func(this js.Value, args []js.Value) any { ed.AddContainer(); return nil }))
	api.Set("requestDelete", js.FuncOf(func(this js.Value, args []js.Value) any { ed.RequestDelete(); return nil }))
	api.Set("confirmDelete", js.FuncOf(confirmDelete))
	api.Set("removeFromContainer", js.FuncOf(func(this js.Value, args []js.Value) any { ed.RemoveFromContainer(); return nil }))
	api.Set("assignToContainer", js.FuncOf(assignToContainer))
	api.Set("selectContainer", js.FuncOf(selectContainer))
	api.Set("createCompound", js.FuncOf(func(this js.Value, args []js.Value) any { ed.CreateCompound(); return nil }))
	api.Set("breakCompound", js.FuncOf(func(this js.Value, args []js.Value) any { ed.BreakCompound(); return nil }))
	api.Set("translateContainer", js.FuncOf(translateContainer))
	api.Set("rotateContainer", js.FuncOf(rotateContainer))
	api.Set("scaleContainer", js.FuncOf(scaleContainer))
	api.Set("renameContainer", js.FuncOf(renameContainer))
	api.Set("saveContainer", js.FuncOf(saveContainer))
	api.Set("loadContainer", js.FuncOf(loadContainer))
	api.Set("setProperty", js.FuncOf(setProperty))
	api.Set("deselect", js.FuncOf(func(this js.Value, args []js.Value) any { ed.Deselect(); return nil }))
	api.Set("pause", js.FuncOf(func(this js.Value, args []js.Value) any { ed.Pause(); return nil }))
	api.Set("resume", js.FuncOf(func(this js.Value, args []js.Value) any { ed.Resume(); return nil }))
	api.Set("setGravity", js.FuncOf(setGravity))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← backend) ---
	api.Set("render", js.FuncOf(render))
	api.Set("getUIState", js.FuncOf(getUIState))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("drainNotifications", js.FuncOf(drainNotifications))

	// Register on global scope
	js.Global().Set("rigkitEditor", api)

	// Signal that WASM is ready
	js.Global().Set("rigkitWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func pointerDown(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	ev := selection.PointerEvent{Position: geom.V(args[0].Float(), args[1].Float())}
	if len(args) > 2 && args[2].Int() == 2 {
		ev.Button = selection.ButtonSecondary
	}
	if len(args) > 3 {
		ev.Shift = args[3].Truthy()
	}
	if len(args) > 4 {
		ev.Ctrl = args[4].Truthy()
	}
	ed.PointerDown(ev)
	return nil
}

func addBody(this js.Value, args []js.Value) any {
	kind := editor.KindCircle
	if len(args) > 0 && args[0].Type() == js.TypeString {
		kind = args[0].String()
	}
	ed.AddBody(kind)
	return nil
}

func confirmDelete(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	ed.ConfirmDelete(args[0].String(), args[1].Truthy())
	return nil
}

func assignToContainer(this js.Value, args []js.Value) any {
	ed.AssignToContainer(stringArg(args, 0))
	return nil
}

func selectContainer(this js.Value, args []js.Value) any {
	ed.SelectContainer(stringArg(args, 0))
	return nil
}

func translateContainer(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	ed.TranslateContainer(args[0].Float(), args[1].Float())
	return nil
}

func rotateContainer(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	ed.RotateContainer(args[0].Float())
	return nil
}

func scaleContainer(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	ed.ScaleContainer(args[0].Float())
	return nil
}

func renameContainer(this js.Value, args []js.Value) any {
	ed.RenameContainer(stringArg(args, 0))
	return nil
}

func saveContainer(this js.Value, args []js.Value) any {
	return js.ValueOf(ed.SaveContainer(stringArg(args, 0)))
}

func loadContainer(this js.Value, args []js.Value) any {
	ed.LoadContainer(stringArg(args, 0), stringArg(args, 1))
	return nil
}

func setProperty(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	value := args[1]
	if value.Type() == js.TypeBoolean {
		if value.Bool() {
			ed.SetProperty(args[0].String(), 1)
		} else {
			ed.SetProperty(args[0].String(), 0)
		}
		return nil
	}
	ed.SetProperty(args[0].String(), value.Float())
	return nil
}

func setGravity(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	ed.SetGravity(args[0].Float())
	return nil
}

func tick(this js.Value, args []js.Value) any {
	dt := 1.0 / 60
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		dt = args[0].Float()
	}
	return js.ValueOf(ed.Tick(dt))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(ed.Render())
}

func getUIState(this js.Value, args []js.Value) any {
	return js.ValueOf(ed.GetUIState())
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("[]")
	}
	ids := ed.HitTest(args[0].Float(), args[1].Float())
	if ids == nil {
		ids = []string{}
	}
	data, _ := json.Marshal(ids)
	return js.ValueOf(string(data))
}

// drainNotifications returns the notifications and confirmation requests
// raised since the last call as JSON.
func drainNotifications(this js.Value, args []js.Value) any {
	messages, confirms := queue.Drain()
	if messages == nil {
		messages = []editor.Message{}
	}
	if confirms == nil {
		confirms = []editor.ConfirmRequest{}
	}
	data, _ := json.Marshal(map[string]any{
		"messages": messages,
		"confirms": confirms,
	})
	return js.ValueOf(string(data))
}

func stringArg(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}
