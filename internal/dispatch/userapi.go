package dispatch

import "github.com/condrv-project/condrv/internal/transport"

// dispatchUserDefined implements spec §4.6 user_defined: the payload
// begins with {api_number uint32, api_descriptor_size uint32} followed
// by a variable-length structure the api_number selects (spec §6.1,
// §6.3). Unrecognized numbers return not_implemented after zeroing the
// reply descriptor, so replies stay deterministic.
func (e *Engine) dispatchUserDefined(pkt *transport.Packet, io transport.HostIO) Result {
	for i := range pkt.Output {
		pkt.Output[i] = 0
	}
	r := newReader(pkt.Input)
	api := APINumber(r.u32())
	descSize := int(r.u32())
	body := r.rest()
	if descSize >= 0 && descSize <= len(body) {
		body = body[:descSize]
	}

	if notImplemented[api] {
		return status(transport.StatusNotImplemented)
	}

	h, hasHandle := e.State.Handle(pkt.Descriptor.Object)

	switch api {
	case APIGetMode, APISetMode, APIGetCP, APISetCP, APIGetLangID,
		APIGetKeyboardLayoutName, APIGetMouseInfo, APIGetSelectionInfo:
		return e.dispatchModeAPI(api, pkt, body, h, hasHandle)

	case APIGetScreenBufferInfo, APISetScreenBufferInfo, APISetScreenBufferSize,
		APIGetCursorInfo, APISetCursorInfo, APISetCursorPosition,
		APIGetLargestWindowSize, APISetTextAttribute, APISetWindowInfo,
		APIScrollScreenBuffer, APIFillConsoleOutput,
		APIReadConsoleOutputString, APIWriteConsoleOutputString,
		APIReadConsoleOutput, APIWriteConsoleOutput,
		APISetActiveScreenBuffer, APIGetTitle, APISetTitle:
		return e.dispatchScreenBufferAPI(api, pkt, body, h, hasHandle)

	case APIWriteConsole, APIReadConsole, APIGetConsoleInput,
		APIWriteConsoleInput, APIFlushInputBuffer, APIGetNumberOfInputEvents:
		return e.dispatchIOAPI(api, pkt, io, body, h, hasHandle)

	case APIGenerateCtrlEvent, APIGetConsoleProcessList, APINotifyLastClose:
		return e.dispatchProcessAPI(api, pkt, io, body)

	case APIAddAlias, APIGetAlias, APIGetAliasesLength, APIGetAliases,
		APIGetAliasExesLength, APIGetAliasExes:
		return e.dispatchAliasAPI(api, pkt, body)

	case APIGetHistory, APISetHistory, APIExpungeCommandHistory,
		APISetNumberOfCommands, APIGetCommandHistoryLength, APIGetCommandHistory:
		return e.dispatchHistoryAPI(api, pkt, body)

	case APISetKeyShortcuts, APISetMenuClose, APISetLocalEUDC, APIRegisterOS2,
		APISetOS2OemFormat, APIGetDisplayMode, APISetDisplayMode,
		APIGetCursorMode, APISetCursorMode, APIGetNlsMode, APISetNlsMode,
		APICharType, APIGetConsoleWindow, APIGetNumberOfFonts, APIGetFontInfo,
		APIGetFontSize, APIGetCurrentFont, APISetCurrentFont, APISetFont:
		return e.dispatchCompatAPI(api, pkt, body)

	default:
		return status(transport.StatusNotImplemented)
	}
}
