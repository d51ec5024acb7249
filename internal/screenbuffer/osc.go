package screenbuffer

// oscAccumulate parses `CODE ; payload` terminated by BEL, C1 ST, or
// ESC \ (spec §4.3.4 OSC state).
func (sb *ScreenBuffer) oscAccumulate(ch uint16, titles TitleSink) {
	if len(sb.parser.oscBuf) >= maxOSCLength {
		sb.parser.reset()
		return
	}
	switch ch {
	case 0x07: // BEL
		sb.commitOSC(titles)
	case 0x9C: // C1 ST
		sb.commitOSC(titles)
	case 0x1B:
		sb.parser.phase = phaseOSCEscape
	case ';':
		if !sb.parser.oscHaveSemi {
			sb.parser.oscHaveSemi = true
		} else {
			sb.parser.oscBuf = append(sb.parser.oscBuf, byte(ch))
		}
	default:
		if !sb.parser.oscHaveSemi && ch >= '0' && ch <= '9' {
			sb.parser.oscCode = sb.parser.oscCode*10 + int(ch-'0')
		} else if sb.parser.oscHaveSemi {
			sb.parser.oscBuf = append(sb.parser.oscBuf, byte(ch))
		}
	}
}

func (sb *ScreenBuffer) commitOSC(titles TitleSink) {
	switch sb.parser.oscCode {
	case 0, 1, 2, 21:
		titles.SetTitle(string(sb.parser.oscBuf))
	}
	sb.parser.reset()
}
