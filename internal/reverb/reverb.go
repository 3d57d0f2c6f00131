// Package reverb implements the Dattorro plate reverberator used as the
// synthesizer's shared reverb send/return bus.
//
// Dattorro, J (1997). Effect design: Part 1: Reverberator and other
// filters. Journal of Audio Engineering Society 45(9):660-684.
package reverb

// delayLine is a fixed-size circular buffer supporting the comb/allpass
// read-write patterns the plate topology is built from.
type delayLine struct {
	buf []float32
	pos int
}

func newDelayLine(size int) delayLine {
	return delayLine{buf: make([]float32, size)}
}

func (d *delayLine) write(value float32) {
	d.buf[d.pos] = value
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) getWriteAndStep(value float32) float32 {
	r := d.buf[d.pos]
	d.write(value)
	return r
}

// read returns the value written i samples ago.
func (d *delayLine) read(i int) float32 {
	idx := d.pos - i
	n := len(d.buf)
	idx %= n
	if idx < 0 {
		idx += n
	}
	return d.buf[idx]
}

func (d *delayLine) back() float32 {
	return d.read(len(d.buf) - 1)
}

func (d *delayLine) comb(value, feedFwd, feedBck float32) float32 {
	dd := d.buf[d.pos]
	r := value + dd*feedBck
	d.write(r)
	return dd + r*feedFwd
}

func (d *delayLine) allpass(value, feedFwd float32) float32 {
	return d.comb(value, feedFwd, -feedFwd)
}

func (d *delayLine) mute() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}

// onePole is a one-pole low-pass filter used for input bandwidth limiting
// and tank damping.
type onePole struct {
	state float32
	a, b  float32
}

func (p *onePole) damping(value float32) {
	abs := value
	if abs < 0 {
		abs = -abs
	}
	p.a = 1 - abs
	p.b = value
}

func (p *onePole) call(in float32) float32 {
	p.state = in*p.a + p.state*p.b
	return p.state
}

// Reverb is a Dattorro plate reverberator: mono in, stereo out.
type Reverb struct {
	delayFeed1 float32
	delayFeed2 float32
	decay1     float32
	decay2     float32
	decayParam float32

	preDelay  delayLine
	onePole   onePole
	allPassIn [4]delayLine

	allPassDecay11 delayLine
	allPassDecay12 delayLine
	delay11        delayLine
	delay12        delayLine
	onePole1       onePole

	allPassDecay21 delayLine
	allPassDecay22 delayLine
	delay21        delayLine
	delay22        delayLine
	onePole2       onePole
}

// New builds a Reverb with the standard Dattorro tunables: bandwidth
// 0.9995, decay 0.85, damping 0.9, diffusion (0.76, 0.666, 0.707, 0.517).
func New() *Reverb {
	r := &Reverb{
		preDelay: newDelayLine(10),
		allPassIn: [4]delayLine{
			newDelayLine(142), newDelayLine(107), newDelayLine(379), newDelayLine(277),
		},
		allPassDecay11: newDelayLine(672),
		allPassDecay12: newDelayLine(1800),
		delay11:        newDelayLine(4453),
		delay12:        newDelayLine(3720),
		allPassDecay21: newDelayLine(908),
		allPassDecay22: newDelayLine(2656),
		delay21:        newDelayLine(4217),
		delay22:        newDelayLine(3163),
	}
	r.SetBandwidth(0.9995)
	r.SetDecay(0.85)
	r.SetDamping(0.9)
	r.SetDiffusion(0.76, 0.666, 0.707, 0.517)
	return r
}

// SetBandwidth sets the input low-pass cutoff, in [0,1].
func (r *Reverb) SetBandwidth(value float32) {
	r.onePole.damping(1 - value)
}

// SetDamping sets the tank's high-frequency damping amount, in [0,1].
func (r *Reverb) SetDamping(value float32) {
	r.onePole1.damping(value)
	r.onePole2.damping(value)
}

// SetDecay sets the overall decay factor, in [0,1].
func (r *Reverb) SetDecay(value float32) {
	r.decayParam = value
}

// SetDiffusion sets the input and tank diffusion coefficients; values
// near 0.7 are recommended.
func (r *Reverb) SetDiffusion(in1, in2, decay1, decay2 float32) {
	r.delayFeed1 = in1
	r.delayFeed2 = in2
	r.decay1 = decay1
	r.decay2 = decay2
}

// Mute silences every delay line and filter state, without touching the
// configured tunables.
func (r *Reverb) Mute() {
	r.preDelay.mute()
	r.onePole.state = 0
	for i := range r.allPassIn {
		r.allPassIn[i].mute()
	}
	r.allPassDecay11.mute()
	r.allPassDecay12.mute()
	r.delay11.mute()
	r.delay12.mute()
	r.onePole1.state = 0
	r.allPassDecay21.mute()
	r.allPassDecay22.mute()
	r.delay21.mute()
	r.delay22.mute()
	r.onePole2.state = 0
}

// Render computes one stereo wet sample from a mono dry input.
func (r *Reverb) Render(input float32) (float32, float32) {
	value := r.preDelay.getWriteAndStep(input * 0.5)
	value = r.onePole.call(value)
	value = r.allPassIn[0].allpass(value, r.delayFeed1)
	value = r.allPassIn[1].allpass(value, r.delayFeed1)
	value = r.allPassIn[2].allpass(value, r.delayFeed2)
	value = r.allPassIn[3].allpass(value, r.delayFeed2)

	a := value + r.delay22.back()*r.decayParam
	b := value + r.delay12.back()*r.decayParam

	a = r.allPassDecay11.allpass(a, -r.decay1)
	a = r.delay11.getWriteAndStep(a)
	a = r.onePole1.call(a) * r.decayParam
	a = r.allPassDecay12.allpass(a, r.decay2)
	r.delay12.write(a)

	b = r.allPassDecay21.allpass(b, -r.decay1)
	b = r.delay21.getWriteAndStep(b)
	b = r.onePole2.call(b) * r.decayParam
	b = r.allPassDecay22.allpass(b, r.decay2)
	r.delay22.write(b)

	left := r.delay21.read(266) + r.delay21.read(2974) - r.allPassDecay22.read(1913) +
		r.delay22.read(1996) - r.delay11.read(1990) - r.allPassDecay12.read(187) - r.delay12.read(1066)

	right := r.delay11.read(353) + r.delay11.read(3627) - r.allPassDecay12.read(1228) +
		r.delay12.read(2673) - r.delay21.read(2111) - r.allPassDecay22.read(335) - r.delay22.read(121)

	return left, right
}
