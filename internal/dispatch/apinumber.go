package dispatch

// APINumber identifies one user_defined_body operation (spec §6.3). The
// concrete values are arbitrary (this protocol has no wire-compatible
// peer to match numerically) but stable within this module: a client
// and server built from the same module agree on them implicitly.
type APINumber uint32

const (
	APIGetMode APINumber = iota + 1
	APISetMode
	APIGetCP
	APISetCP
	APIGetLangID
	APIGetKeyboardLayoutName
	APIGetMouseInfo
	APIGetSelectionInfo

	APIGetScreenBufferInfo
	APISetScreenBufferInfo
	APISetScreenBufferSize
	APIGetCursorInfo
	APISetCursorInfo
	APISetCursorPosition
	APIGetLargestWindowSize
	APISetTextAttribute
	APISetWindowInfo
	APIScrollScreenBuffer
	APIFillConsoleOutput
	APIReadConsoleOutputString
	APIWriteConsoleOutputString
	APIReadConsoleOutput
	APIWriteConsoleOutput
	APISetActiveScreenBuffer
	APIGetTitle
	APISetTitle

	APIWriteConsole
	APIReadConsole
	APIGetConsoleInput
	APIWriteConsoleInput
	APIFlushInputBuffer
	APIGetNumberOfInputEvents

	APIGenerateCtrlEvent
	APIGetConsoleProcessList
	APINotifyLastClose

	APIAddAlias
	APIGetAlias
	APIGetAliasesLength
	APIGetAliases
	APIGetAliasExesLength
	APIGetAliasExes

	APIGetHistory
	APISetHistory
	APIExpungeCommandHistory
	APISetNumberOfCommands
	APIGetCommandHistoryLength
	APIGetCommandHistory

	APISetKeyShortcuts
	APISetMenuClose
	APISetLocalEUDC
	APIRegisterOS2
	APISetOS2OemFormat
	APIGetDisplayMode
	APISetDisplayMode
	APIGetCursorMode
	APISetCursorMode
	APIGetNlsMode
	APISetNlsMode
	APICharType
	APIGetConsoleWindow
	APIGetNumberOfFonts
	APIGetFontInfo
	APIGetFontSize
	APIGetCurrentFont
	APISetCurrentFont
	APISetFont

	APIMapBitmap
	APISetIcon
	APIInvalidateBitmapRect
	APIVDMOperation
	APISetCursor
	APIShowCursor
	APIMenuControl
	APISetPalette
	APIRegisterVDM
	APIGetHardwareState
	APISetHardwareState
)

// notImplemented is the fixed set of API numbers spec §6.3 requires to
// return not_implemented explicitly (as opposed to falling there by
// virtue of being an unrecognized number).
var notImplemented = map[APINumber]bool{
	APIMapBitmap:            true,
	APISetIcon:              true,
	APIInvalidateBitmapRect: true,
	APIVDMOperation:         true,
	APISetCursor:            true,
	APIShowCursor:           true,
	APIMenuControl:          true,
	APISetPalette:           true,
	APIRegisterVDM:          true,
	APIGetHardwareState:     true,
	APISetHardwareState:     true,
}
