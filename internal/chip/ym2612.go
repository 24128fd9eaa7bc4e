package chip

import (
	"vgmslot/internal/chiptype"
	"vgmslot/internal/rom"
	"vgmslot/internal/stream"
)

// ym2612ChannelCount is the number of FM channels per port group (3 per
// group, 2 groups = 6 channels total).
const ym2612ChannelCount = 3

// YM2612 emulates the Sega Genesis/Mega Drive FM sound chip's scheduling
// surface: the four-port register latch the VGM 0x52/0x53 commands and the
// XGM port 0/1 register blocks drive, and channel 6's DAC override path. The operator/envelope DSP itself is
// approximated with one tone oscillator per channel rather than a true
// 4-operator FM implementation: the engine's contract only requires a
// chip to produce *a* waveform synchronized to the register writes, not a
// bit-accurate one.
type YM2612 struct {
	// group[0] is ports 0/1 (channels 1-3), group[1] is ports 2/3
	// (channels 4-6).
	latchedReg [2]uint8
	freqLSB    [2][ym2612ChannelCount]uint8
	freqMSB    [2][ym2612ChannelCount]uint8
	tl         [2][ym2612ChannelCount]uint8 // operator 4 (carrier) total level, used as a volume proxy
	osc        [2][ym2612ChannelCount]toneChannel

	clock     uint32
	nativeHz  uint32
	dacEnable bool
	dacValue  int8
}

// NewYM2612 constructs a YM2612 with every channel silent.
func NewYM2612() *YM2612 {
	c := &YM2612{}
	for g := 0; g < 2; g++ {
		for ch := 0; ch < ym2612ChannelCount; ch++ {
			c.tl[g][ch] = 0x7f // max attenuation: silent until a write sets it
		}
	}
	return c
}

// Init derives the native output rate from the YM2612's fixed internal
// divider (the real chip divides its input clock by 144 to reach the FM
// sample clock).
func (c *YM2612) Init(clock uint32) uint32 {
	c.clock = clock
	c.nativeHz = clock / 144
	return c.nativeHz
}

func (c *YM2612) Reset() {
	*c = *NewYM2612()
	_ = c.Init(c.clock)
}

// Write implements the four-port latch: ports 0 and 2 select a register
// address in their group, ports 1 and 3 write data to the previously
// latched register of that group. Both log drivers address the chip this
// way: VGM's 0x52/0x53 dispatch picks the group from the command byte
// (port = (cmd&1)<<1 for the register-select byte, port+1 for the data
// byte), and XGM's 0x20/0x30 register blocks do the same for ports 0/1
// and 2/3 respectively.
func (c *YM2612) Write(index int, port, data uint32, s stream.SoundStream) {
	group := int(port/2) & 1
	isData := port%2 == 1
	d := uint8(data)

	if !isData {
		c.latchedReg[group] = d
		return
	}

	reg := c.latchedReg[group]
	switch {
	case reg == 0x2a && group == 0:
		c.dacValue = int8(d - 0x80)
	case reg == 0x2b && group == 0:
		c.dacEnable = d&0x80 != 0
	case reg >= 0xa0 && reg <= 0xa2:
		ch := int(reg - 0xa0)
		c.freqLSB[group][ch] = d
		c.retune(group, ch)
	case reg >= 0xa4 && reg <= 0xa6:
		ch := int(reg - 0xa4)
		c.freqMSB[group][ch] = d
		c.retune(group, ch)
	case reg >= 0x40 && reg <= 0x4f:
		// Operator total level. This model decodes an offset within the
		// 0x40 block as operator = offset%4 and channel = offset/4, so
		// 0x43, 0x47 and 0x4b are operator 3 of channels 0-2. Only
		// operator 3, treated as the carrier, drives the volume proxy.
		op := (reg - 0x40) % 4
		ch := int((reg - 0x40) / 4)
		if op == 3 && ch < ym2612ChannelCount {
			c.tl[group][ch] = d & 0x7f
		}
	}
}

func (c *YM2612) retune(group, ch int) {
	if c.nativeHz == 0 {
		return
	}
	fnum := uint32(c.freqLSB[group][ch]) | (uint32(c.freqMSB[group][ch]&0x07) << 8)
	block := uint32(c.freqMSB[group][ch]>>3) & 0x07
	// Real hardware frequency derivation: freq = fnum * 2^block * baseClock
	// / 2^(20+7). Simplified here to the same relative scaling without
	// replicating the exact operator phase table.
	freq := uint32((uint64(fnum<<block) * uint64(c.clock)) >> 27)
	c.osc[group][ch].increment = uint32((uint64(freq) * 0x100000000) / uint64(c.nativeHz))
}

// Tick produces one native sample: the DAC override replaces channel 6
// (group 1, channel index 2) when enabled, matching the real chip's
// channel-6-as-DAC mode used by nearly every Genesis driver for drums and
// voice samples.
func (c *YM2612) Tick(index int, s stream.SoundStream) {
	var mix int32
	for g := 0; g < 2; g++ {
		for ch := 0; ch < ym2612ChannelCount; ch++ {
			if g == 1 && ch == ym2612ChannelCount-1 && c.dacEnable {
				mix += int32(c.dacValue) * 200
				continue
			}
			out := c.osc[g][ch].step()
			atten := int32(c.tl[g][ch])
			level := int32(127 - atten)
			if level < 0 {
				level = 0
			}
			mix += out * level * 40
		}
	}
	sample := stream.ConvertSampleI2F(mix)
	s.Push(sample, sample)
}

func (c *YM2612) SetRomBank(romIndex chiptype.RomIndex, bank *rom.Bank) {}
func (c *YM2612) NotifyAddRom(romIndex chiptype.RomIndex, indexNo int)  {}
