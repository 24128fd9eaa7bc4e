package chip

import (
	"math"

	"vgmslot/internal/chiptype"
	"vgmslot/internal/rom"
	"vgmslot/internal/stream"
)

// psgVolumeTable converts a 4-bit attenuation (0 = loudest, 15 = silent) to
// linear amplitude, each step roughly -2dB, matching the real hardware's
// logarithmic volume ladder.
var psgVolumeTable [16]float32

func init() {
	for i := 0; i < 15; i++ {
		psgVolumeTable[i] = float32(math.Pow(10, -2.0*float64(i)/20.0))
	}
	psgVolumeTable[15] = 0
}

// PSG emulates the SN76489/SEGAPSG family: three square-wave tone channels
// and one LFSR noise channel, each with its own 4-bit volume. The two
// ChipType tags differ only in LFSR width and noise tap, configured at
// construction.
type PSG struct {
	chipType chiptype.Type

	toneReg     [3]uint16
	toneCounter [3]uint16
	toneOutput  [3]bool

	noiseReg     uint8
	noiseCounter uint16
	noiseShift   uint16
	noiseToggle  bool
	noiseOut     bool

	volume [4]uint8

	// ggStereo is the Game Gear stereo mask: bits 4-7 enable channels 0-3
	// on the left output, bits 0-3 on the right. 0xff (all enabled, the
	// power-on state) reduces to mono.
	ggStereo uint8

	latchedChannel uint8
	latchedType    uint8

	feedbackShift  uint
	lfsrInitial    uint16
	whiteNoiseTaps uint16
	toneZeroValue  uint16

	clockDivider int
}

// NewPSG constructs a PSG for the given chip tag. SEGAPSG uses the Sega
// console variant (16-bit LFSR, tone-zero-as-1, taps at bits 0 and 3);
// SN76489 uses the original TI variant (15-bit LFSR, taps at bits 0 and 1,
// tone-zero-as-1024).
func NewPSG(t chiptype.Type) *PSG {
	p := &PSG{chipType: t}
	if t == chiptype.SEGAPSG {
		p.feedbackShift = 15
		p.whiteNoiseTaps = 0x0009
		p.toneZeroValue = 1
	} else {
		p.feedbackShift = 14
		p.whiteNoiseTaps = 0x0003
		p.toneZeroValue = 1024
	}
	p.lfsrInitial = uint16(1) << p.feedbackShift
	p.noiseShift = p.lfsrInitial
	p.ggStereo = 0xff
	for i := range p.volume {
		p.volume[i] = 0x0f
	}
	return p
}

// Init divides the input clock by 16, the PSG's fixed internal divider, and
// reports the result as the native sampling rate.
func (p *PSG) Init(clock uint32) uint32 {
	return clock / 16
}

func (p *PSG) Reset() {
	p.toneReg = [3]uint16{}
	p.toneCounter = [3]uint16{}
	p.toneOutput = [3]bool{}
	p.noiseReg = 0
	p.noiseCounter = 0
	p.noiseShift = p.lfsrInitial
	p.noiseToggle = false
	p.noiseOut = false
	p.ggStereo = 0xff
	for i := range p.volume {
		p.volume[i] = 0x0f
	}
	p.latchedChannel = 0
	p.latchedType = 0
	p.clockDivider = 0
}

// Write decodes the PSG's single-byte latch/data protocol on port 0. Port 1
// is the Game Gear stereo latch (VGM command 0x4f): the byte is a channel
// enable mask, not a register write, so it bypasses the latch entirely.
func (p *PSG) Write(index int, port, data uint32, s stream.SoundStream) {
	value := uint8(data)
	if port == 1 {
		p.ggStereo = value
		return
	}
	if value&0x80 != 0 {
		p.latchedChannel = (value >> 5) & 0x03
		p.latchedType = (value >> 4) & 0x01
		d := value & 0x0f

		if p.latchedType == 1 {
			p.volume[p.latchedChannel] = d
		} else if p.latchedChannel < 3 {
			p.toneReg[p.latchedChannel] = (p.toneReg[p.latchedChannel] & 0x3f0) | uint16(d)
		} else {
			p.noiseReg = d & 0x07
			p.noiseShift = p.lfsrInitial
		}
		return
	}

	if p.latchedType == 0 {
		if p.latchedChannel < 3 {
			d := uint16(value & 0x3f)
			p.toneReg[p.latchedChannel] = (p.toneReg[p.latchedChannel] & 0x0f) | (d << 4)
		} else {
			p.noiseReg = value & 0x07
			p.noiseShift = p.lfsrInitial
		}
	}
}

// Tick advances the PSG by one native sample: 16 raw clock cycles (the
// chip's fixed internal division) followed by a mix of the four channels.
func (p *PSG) Tick(index int, s stream.SoundStream) {
	for raw := 0; raw < 16; raw++ {
		p.clock()
	}
	var left, right float32
	for i := 0; i < 4; i++ {
		var ch float32
		if i < 3 {
			if p.toneOutput[i] {
				ch = psgVolumeTable[p.volume[i]]
			}
		} else if p.noiseOut {
			ch = psgVolumeTable[p.volume[3]]
		}
		if p.ggStereo&(1<<(4+i)) != 0 {
			left += ch
		}
		if p.ggStereo&(1<<i) != 0 {
			right += ch
		}
	}
	s.Push(left*0.25, right*0.25)
}

func (p *PSG) clock() {
	for i := 0; i < 3; i++ {
		if p.toneCounter[i] > 0 {
			p.toneCounter[i]--
		} else {
			if p.toneReg[i] == 0 {
				p.toneCounter[i] = p.toneZeroValue
			} else {
				p.toneCounter[i] = p.toneReg[i]
			}
			p.toneOutput[i] = !p.toneOutput[i]
		}
	}

	if p.noiseCounter > 0 {
		p.noiseCounter--
		return
	}

	switch p.noiseReg & 0x03 {
	case 0:
		p.noiseCounter = 0x10
	case 1:
		p.noiseCounter = 0x20
	case 2:
		p.noiseCounter = 0x40
	case 3:
		if p.toneReg[2] == 0 {
			p.noiseCounter = p.toneZeroValue
		} else {
			p.noiseCounter = p.toneReg[2]
		}
	}

	p.noiseToggle = !p.noiseToggle
	if !p.noiseToggle {
		return
	}

	p.noiseOut = p.noiseShift&1 != 0

	var feedback uint16
	if p.noiseReg&0x04 != 0 {
		tapped := p.noiseShift & p.whiteNoiseTaps
		tapped ^= tapped >> 8
		tapped ^= tapped >> 4
		tapped ^= tapped >> 2
		tapped ^= tapped >> 1
		feedback = (tapped & 1) << p.feedbackShift
	} else {
		feedback = (p.noiseShift & 1) << p.feedbackShift
	}
	p.noiseShift = (p.noiseShift >> 1) | feedback
}

func (p *PSG) SetRomBank(romIndex chiptype.RomIndex, bank *rom.Bank) {}
func (p *PSG) NotifyAddRom(romIndex chiptype.RomIndex, indexNo int)  {}
