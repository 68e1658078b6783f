package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"prism/internal/oschub"
)

const simulateTickRate = 50 // synthetic frames per second

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var bpm float64
	var file string
	var target string
	var title string
	var artist string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send a synthetic or mp3-derived feature feed",
		Long: "Feeds /audio features to a running prismd without a live analyzer: " +
			"a synthetic beat grid by default, or band energies decoded from an mp3 with --file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bpm <= 0 {
				return errors.New("--bpm must be positive")
			}

			resolved := strings.TrimSpace(target)
			if resolved == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				_, port, err := net.SplitHostPort(cfg.OSC.Bind)
				if err != nil {
					return fmt.Errorf("derive target from osc.bind %q: %w", cfg.OSC.Bind, err)
				}
				resolved = net.JoinHostPort("127.0.0.1", port)
			}
			host, portStr, err := net.SplitHostPort(resolved)
			if err != nil {
				return fmt.Errorf("parse target %q: %w", resolved, err)
			}
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return fmt.Errorf("parse target port %q: %w", portStr, err)
			}
			client := osc.NewClient(host, port)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Feeding %s at %.0f BPM (Ctrl-C to stop)\n", resolved, bpm)

			if title != "" {
				sendOSC(client, oschub.AddrSongTitle, title)
				if artist != "" {
					sendOSC(client, oschub.AddrSongArtist, artist)
				}
			}

			if file != "" {
				return feedFromFile(cmd, client, file, bpm)
			}
			return feedSynthetic(cmd, client, bpm)
		},
	}

	cmd.Flags().Float64Var(&bpm, "bpm", 120, "Beat grid tempo")
	cmd.Flags().StringVar(&file, "file", "", "Derive the feed from an mp3 file instead of synthesis")
	cmd.Flags().StringVar(&target, "target", "", "UDP destination (defaults to osc.bind's port on localhost)")
	cmd.Flags().StringVar(&title, "title", "", "Announce a song title before feeding")
	cmd.Flags().StringVar(&artist, "artist", "", "Announce a song artist before feeding")
	return cmd
}

func sendOSC(client *osc.Client, address string, args ...interface{}) {
	msg := osc.NewMessage(address)
	msg.Append(args...)
	// UDP feed; a dropped frame is replaced by the next tick.
	_ = client.Send(msg)
}

type featureFrame struct {
	bass, lowMid, mid, high float64
	level, energy           float64
	hit                     float64
	onBeat                  float64
	beatTime                float64
}

func sendFrame(client *osc.Client, f featureFrame) {
	sendOSC(client, oschub.AddrBassLevel, float32(f.bass))
	sendOSC(client, oschub.AddrLowMidLevel, float32(f.lowMid))
	sendOSC(client, oschub.AddrMidLevel, float32(f.mid))
	sendOSC(client, oschub.AddrHighLevel, float32(f.high))
	sendOSC(client, oschub.AddrLevel, float32(f.level))
	sendOSC(client, oschub.AddrBassPresence, float32(f.bass))
	sendOSC(client, oschub.AddrHighPresence, float32(f.high))
	sendOSC(client, oschub.AddrEnergy, float32(f.energy))
	sendOSC(client, oschub.AddrBeatTime, float32(f.beatTime))
	sendOSC(client, oschub.AddrBassHits, float32(f.hit))
	sendOSC(client, oschub.AddrBeatOnBeat, float32(f.onBeat))
}

// feedSynthetic runs a kick-on-every-beat pattern with slow energy swells,
// close enough to a real analyzer for rehearsing bindings.
func feedSynthetic(cmd *cobra.Command, client *osc.Client, bpm float64) error {
	period := 60 / bpm
	ticker := time.NewTicker(time.Second / simulateTickRate)
	defer ticker.Stop()

	start := time.Now()
	lastBeat := -1
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			beats := t / period
			phase := beats - math.Floor(beats)

			frame := featureFrame{
				bass:     simClamp(0.15 + 0.85*math.Exp(-5*phase)),
				lowMid:   simClamp(0.2 + 0.3*math.Exp(-3*phase) + 0.1*math.Sin(2*math.Pi*t*0.7)),
				mid:      simClamp(0.3 + 0.2*math.Sin(2*math.Pi*t*1.3)),
				high:     simClamp(0.25 + 0.2*math.Sin(2*math.Pi*t*1.7) + 0.15*math.Exp(-8*phase)),
				energy:   simClamp(0.5 + 0.35*math.Sin(2*math.Pi*t/16)),
				beatTime: beats,
			}
			frame.level = simClamp(0.5*frame.bass + 0.3*frame.mid + 0.2*frame.high)

			if beat := int(beats); beat != lastBeat {
				lastBeat = beat
				frame.hit = 1
				frame.onBeat = 1
			}
			sendFrame(client, frame)
		}
	}
}

// feedFromFile decodes an mp3 and streams block RMS energies in real time,
// split into bands by cascaded one-pole low-pass filters. Kicks follow the
// --bpm beat grid rather than onset detection.
func feedFromFile(cmd *cobra.Command, client *osc.Client, path string, bpm float64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return fmt.Errorf("decode mp3: %w", err)
	}
	sampleRate := float64(decoder.SampleRate())
	period := 60 / bpm

	// 16-bit stereo frames; ~23 ms blocks at 44.1 kHz.
	const blockFrames = 1024
	buf := make([]byte, blockFrames*4)

	split := newBandSplitter(sampleRate)
	start := time.Now()
	var elapsed float64
	lastBeat := -1

	for {
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
		n, err := io.ReadFull(decoder, buf)
		if n == 0 {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				fmt.Fprintln(cmd.OutOrStdout(), "Reached end of file")
				return nil
			}
			return fmt.Errorf("read mp3 samples: %w", err)
		}

		frame := split.analyze(buf[:n-n%4])
		frame.energy = frame.level
		frame.beatTime = elapsed / period
		if beat := int(frame.beatTime); beat != lastBeat {
			lastBeat = beat
			frame.hit = simClamp(frame.bass * 2)
			frame.onBeat = 1
		}
		sendFrame(client, frame)

		elapsed += float64(n/4) / sampleRate
		deadline := start.Add(time.Duration(elapsed * float64(time.Second)))
		time.Sleep(time.Until(deadline))
	}
}

// bandSplitter carries one-pole filter state across blocks so band edges do
// not click at block boundaries.
type bandSplitter struct {
	lpBass, lpLowMid, lpMid float64
	aBass, aLowMid, aMid    float64
}

func newBandSplitter(sampleRate float64) *bandSplitter {
	alpha := func(cutoff float64) float64 {
		return 1 - math.Exp(-2*math.Pi*cutoff/sampleRate)
	}
	return &bandSplitter{
		aBass:   alpha(150),
		aLowMid: alpha(700),
		aMid:    alpha(3500),
	}
}

// analyze computes per-band RMS over one block of 16-bit little-endian
// stereo PCM.
func (s *bandSplitter) analyze(block []byte) featureFrame {
	var sumFull, sumBass, sumLowMid, sumMid, sumHigh float64
	frames := len(block) / 4
	if frames == 0 {
		return featureFrame{}
	}

	for i := 0; i < frames; i++ {
		left := int16(uint16(block[i*4]) | uint16(block[i*4+1])<<8)
		right := int16(uint16(block[i*4+2]) | uint16(block[i*4+3])<<8)
		sample := (float64(left) + float64(right)) / 2 / 32768

		s.lpBass += s.aBass * (sample - s.lpBass)
		s.lpLowMid += s.aLowMid * (sample - s.lpLowMid)
		s.lpMid += s.aMid * (sample - s.lpMid)

		bass := s.lpBass
		lowMid := s.lpLowMid - s.lpBass
		mid := s.lpMid - s.lpLowMid
		high := sample - s.lpMid

		sumFull += sample * sample
		sumBass += bass * bass
		sumLowMid += lowMid * lowMid
		sumMid += mid * mid
		sumHigh += high * high
	}

	rms := func(sum float64) float64 {
		return math.Sqrt(sum / float64(frames))
	}
	// Music RMS sits well below full scale; scale up into the 0..1 range
	// bindings expect.
	const gain = 3.5
	return featureFrame{
		bass:   simClamp(rms(sumBass) * gain),
		lowMid: simClamp(rms(sumLowMid) * gain),
		mid:    simClamp(rms(sumMid) * gain),
		high:   simClamp(rms(sumHigh) * gain),
		level:  simClamp(rms(sumFull) * gain),
	}
}

func simClamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
