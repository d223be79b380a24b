package audio

import (
	"encoding/binary"
	"math"

	"pulse/internal/mathutil"
)

// DemoTrack is the procedural groove played in sample mode. It produces an
// endless mono signal with a clear kick on every beat so band tracking and
// beat detection have something to react to without a microphone.
type DemoTrack struct {
	rate float64
	t    float64
	rng  *mathutil.Rand
}

func NewDemoTrack(sampleRate float64, seed uint64) *DemoTrack {
	return &DemoTrack{rate: sampleRate, rng: mathutil.NewRand(seed)}
}

var demoChords = [][]float64{
	{220.0, 261.6, 329.6, 392.0}, // Am7
	{174.6, 220.0, 261.6, 349.2}, // Fmaj7
	{261.6, 329.6, 392.0, 493.9}, // Cmaj7
	{196.0, 246.9, 293.7, 392.0}, // G
}

const (
	demoTempo       = 1.95 // beats per second, 117 BPM
	demoBeatsPerBar = 4
)

var demoSnare = [16]bool{
	false, false, false, false,
	true, false, false, false,
	false, false, false, false,
	true, false, false, false,
}

var demoBass = [8]bool{true, false, true, false, true, false, false, true}

// Next advances one sample and returns it in [-1, 1].
func (d *DemoTrack) Next() float64 {
	d.t += 1 / d.rate
	t := d.t

	beatLen := 1 / demoTempo
	step16Len := beatLen / 4
	step8Len := beatLen / 2
	beatTrig := math.Mod(t, beatLen)
	step16Trig := math.Mod(t, step16Len)
	step8Trig := math.Mod(t, step8Len)
	step16 := int(t*demoTempo*4) % 16
	step8 := int(t*demoTempo*2) % 8
	beat := int(t * demoTempo)
	chord := demoChords[(beat/demoBeatsPerBar)%len(demoChords)]

	s := kick(beatTrig)
	if demoSnare[step16] {
		s += snare(step16Trig, d.rng) * 0.8
	}
	if step16%2 == 1 {
		s += hihat(step16Trig, step16 == 15, d.rng)
	}
	if demoBass[step8] {
		env := adsr(step8Trig/step8Len, 0.02, 0.5, 0.3, 0.2)
		s += fmBass(t, chord[0]/2, env) * 0.7
	}
	s += fmPad(t, chord, 0.6) * 0.5

	duck := 1 - 0.2*math.Exp(-beatTrig*14)
	return softSat(s * duck * 0.8)
}

// Render fills samples with the next len(samples) values.
func (d *DemoTrack) Render(samples []float32) {
	for i := range samples {
		samples[i] = float32(d.Next())
	}
}

// putStereoF32 writes a mono sample as float32 LE to both channels of frame i.
func putStereoF32(buf []byte, i int, sample float32) {
	v := math.Float32bits(sample)
	binary.LittleEndian.PutUint32(buf[i*8:], v)
	binary.LittleEndian.PutUint32(buf[i*8+4:], v)
}

// softSat applies gentle tanh-like saturation with no hard clipping.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/x
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// adsr returns an envelope at normalized progress [0,1].
func adsr(progress, attack, decay, sustain, release float64) float64 {
	switch {
	case progress < attack:
		return progress / attack
	case progress < attack+decay:
		return 1.0 - (progress-attack)/decay*(1.0-sustain)
	case progress < 1.0-release:
		return sustain
	default:
		return sustain * (1.0 - (progress-(1.0-release))/release)
	}
}

func fm(t, carrier, modRatio, modIdx float64) float64 {
	mod := math.Sin(2 * math.Pi * carrier * modRatio * t)
	return math.Sin(2*math.Pi*carrier*t + modIdx*mod)
}

// kick is a pitch-swept sine with a transient click.
func kick(trig float64) float64 {
	if trig > 0.25 {
		return 0
	}
	phase := 2 * math.Pi * 185 / 12.5 * (1 - math.Exp(-trig*12.5))
	body := math.Sin(phase) * math.Exp(-trig*18.0) * 0.80
	click := math.Sin(2*math.Pi*2100*trig) * math.Exp(-trig*250.0) * 0.24
	return softSat(body + click)
}

func snare(trig float64, rng *mathutil.Rand) float64 {
	if trig > 0.2 {
		return 0
	}
	env := math.Exp(-trig * 26.0)
	body := (math.Sin(2*math.Pi*188*trig)*0.24 + math.Sin(2*math.Pi*356*trig)*0.10) * env
	noise := rng.Signed() * env * 0.5
	return softSat(body + noise)
}

func hihat(trig float64, open bool, rng *mathutil.Rand) float64 {
	decay, limit := 42.0, 0.06
	if open {
		decay, limit = 15.0, 0.18
	}
	if trig > limit {
		return 0
	}
	metal := math.Sin(2*math.Pi*7300*trig) + math.Sin(2*math.Pi*9200*trig)*0.6
	return softSat((rng.Signed()*0.8 + metal*0.2) * math.Exp(-trig*decay) * 0.07)
}

func fmBass(t, freq, env float64) float64 {
	b := fm(t, freq, 0.5, 1.25*env) * env * 0.48
	b += math.Sin(2*math.Pi*freq*t) * env * 0.26
	return softSat(b)
}

func fmPad(t float64, chord []float64, env float64) float64 {
	s := 0.0
	for _, freq := range chord {
		for _, d := range [2]float64{-0.003, 0.004} {
			f := freq * (1 + d)
			s += fm(t, f, 1.45, 0.75*env) * 0.05
		}
	}
	return softSat(s * env)
}
