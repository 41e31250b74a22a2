// Command pipewav runs a DSP pipeline over a WAV file.
//
// Usage:
//
//	pipewav -lowpass 2000 input.wav output.wav
//	pipewav -resample 160:147 input.wav output.wav   # 48 kHz -> 44.1 kHz
//	pipewav -rectify -envelope 64 input.wav envelope.wav
//
// Stages are applied in fixed order: filter, rectify, envelope, resample.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-pipeline/dsp/filterdesign"
	"github.com/cwbudde/algo-pipeline/dsp/pipeline"
	"github.com/cwbudde/algo-pipeline/log"
)

func main() {
	if err := run(); err != nil {
		log.GetLogger().Fatal(err)
	}
}

func run() error {
	lowpass := flag.Float64("lowpass", 0, "Butterworth lowpass cutoff in Hz")
	highpass := flag.Float64("highpass", 0, "Butterworth highpass cutoff in Hz")
	order := flag.Int("order", 4, "IIR filter order")
	rectify := flag.Bool("rectify", false, "Full-wave rectify")
	envWindow := flag.Int("envelope", 0, "Hilbert envelope window size (power of two)")
	resample := flag.String("resample", "", "Rational resampling ratio as up:down")
	verbose := flag.Bool("v", false, "Verbose output (engine debug events)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()

		return fmt.Errorf("input and output paths required")
	}

	if *verbose {
		log.GetLogger().SetLevel(logrus.DebugLevel)
	}

	inputPath, outputPath := args[0], args[1]

	buf, err := readWAV(inputPath)
	if err != nil {
		return err
	}

	rate := float64(buf.Format.SampleRate)
	channels := buf.Format.NumChannels

	up, down, err := parseRatio(*resample)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.WithSink(log.NewSink(nil)))
	defer p.Close()

	if *lowpass > 0 {
		p.AddFilter(filterdesign.Spec{
			Family:     filterdesign.FamilyButterworth,
			Response:   filterdesign.Lowpass,
			Cutoff:     *lowpass,
			SampleRate: rate,
			Order:      *order,
		})
	}

	if *highpass > 0 {
		p.AddFilter(filterdesign.Spec{
			Family:     filterdesign.FamilyButterworth,
			Response:   filterdesign.Highpass,
			Cutoff:     *highpass,
			SampleRate: rate,
			Order:      *order,
		})
	}

	if *rectify {
		p.AddRectify()
	}

	if *envWindow > 0 {
		p.AddHilbertEnvelope(pipeline.HilbertConfig{WindowSize: *envWindow})
	}

	if up > 0 {
		p.AddResample(pipeline.ResampleConfig{Up: up, Down: down})
	}

	if err := p.Err(); err != nil {
		return fmt.Errorf("pipeline configuration: %w", err)
	}

	samples, scale := normalize(buf)

	out, err := p.Process(samples,
		pipeline.WithSampleRate(rate),
		pipeline.WithChannels(channels),
	).Wait()
	if err != nil {
		return fmt.Errorf("processing: %w", err)
	}

	outRate := int(rate)
	if up > 0 {
		outRate = int(rate) * up / down
	}

	if err := writeWAV(outputPath, out, scale, outRate, int(buf.SourceBitDepth), channels); err != nil {
		return err
	}

	log.GetLogger().WithFields(logrus.Fields{
		"input":   inputPath,
		"output":  outputPath,
		"in":      len(samples),
		"out":     len(out),
		"outRate": outRate,
	}).Info("done")

	return nil
}

func readWAV(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	buf.SourceBitDepth = int(dec.BitDepth)

	return buf, nil
}

// normalize converts PCM ints to floats in [-1, 1] and returns the scale
// used, so the output can be denormalized symmetrically.
func normalize(buf *audio.IntBuffer) ([]float64, float64) {
	bits := buf.SourceBitDepth
	if bits == 0 {
		bits = 16
	}

	scale := float64(int(1)<<(bits-1)) - 1

	out := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float64(v) / scale
	}

	return out, scale
}

func writeWAV(path string, samples []float64, scale float64, rate, bitDepth, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}

		data[i] = int(v * scale)
	}

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)

	err = enc.Write(&audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			SampleRate:  rate,
			NumChannels: channels,
		},
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}

	return nil
}

func parseRatio(s string) (up, down int, err error) {
	if s == "" {
		return 0, 0, nil
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("resample ratio %q: want up:down", s)
	}

	up, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("resample ratio %q: %w", s, err)
	}

	down, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("resample ratio %q: %w", s, err)
	}

	if up < 1 || down < 1 {
		return 0, 0, fmt.Errorf("resample ratio %q: factors must be >= 1", s)
	}

	return up, down, nil
}
