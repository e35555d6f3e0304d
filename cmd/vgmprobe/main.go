/*
NAME
  vgmprobe - inspect and decode HCA audio streams.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vgmprobe is a small command-line tool exercising the HCA engine's
// open/info/decode/seek/close cycle end to end: it opens an HCA file,
// prints its subsong geometry and loop points, decodes every frame, dumps
// the result to a WAV file if requested, and, if given a seek target,
// demonstrates restarting decode at an arbitrary frame boundary.
package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vgmcodec/hca"
	"github.com/ausocean/vgmcodec/streamfile"
)

const (
	progName   = "vgmprobe"
	logPath    = "vgmprobe.log"
	logMaxSize = 10 // MB
	wavFormat  = 1  // PCM
	bitsPerPCM = 16
)

func main() {
	in := flag.String("in", "", "path to the HCA file to probe")
	out := flag.String("out", "", "optional path to dump decoded PCM as a WAV file")
	key := flag.String("key", "0", "HCA decryption keycode, decimal or 0x-prefixed hex")
	seek := flag.Int("seek", -1, "if >= 0, seek to this frame index and decode once more after the full decode pass")
	logLevel := flag.Int("LogLevel", int(logging.Info), "log level: 0=Debug .. 4=Fatal")
	flag.Parse()

	fileLog := &lumberjack.Logger{Filename: logPath, MaxSize: logMaxSize}
	log := logging.New(int8(*logLevel), fileLog, true)

	if *in == "" {
		log.Fatal("no input file given; use -in")
	}
	keycode, err := strconv.ParseUint(*key, 0, 64)
	if err != nil {
		log.Fatal("invalid -key", "error", err.Error())
	}

	src, err := streamfile.Open(*in)
	if err != nil {
		log.Fatal("streamfile.Open failed", "error", err.Error())
	}

	f, err := hca.Open(src, keycode)
	if err != nil {
		log.Fatal("hca.Open failed", "error", err.Error())
	}
	defer f.Close()

	info := f.Info()
	log.Info(progName+": opened stream",
		"channels", info.Channels,
		"sampleRate", info.SampleRate,
		"numSamples", info.NumSamples,
		"numFrames", f.NumFrames(),
	)
	if info.Loops() {
		log.Info(progName+": loop region",
			"startFrame", info.Loop.StartFrame,
			"endFrame", info.Loop.EndFrame,
			"startSample", info.Loop.StartSample,
			"endSample", info.Loop.EndSample,
		)
	}

	pcm, frames, err := decodeAll(f)
	if err != nil {
		log.Fatal("decode failed", "error", err.Error())
	}
	log.Info(progName+": decoded", "frames", frames, "samples", len(pcm)/info.Channels)

	if *out != "" {
		if err := writeWAV(*out, pcm, info.Channels, info.SampleRate); err != nil {
			log.Fatal("writing WAV failed", "error", err.Error())
		}
		log.Info(progName+": wrote WAV", "path", *out)
	}

	if *seek >= 0 {
		if err := f.Seek(*seek); err != nil {
			log.Fatal("seek failed", "error", err.Error())
		}
		one, err := f.DecodeNextFrame()
		if err != nil {
			log.Fatal("post-seek decode failed", "error", err.Error())
		}
		log.Info(progName+": decoded frame after seek", "frame", *seek, "samples", len(one))
	}
}

// decodeAll steps every frame of f in order, concatenating the interleaved
// PCM16 samples each yields.
func decodeAll(f *hca.File) ([]int16, int, error) {
	var pcm []int16
	total := f.NumFrames()
	for frames := 0; frames < total; frames++ {
		samples, err := f.DecodeNextFrame()
		if err != nil {
			return nil, frames, err
		}
		pcm = append(pcm, samples...)
	}
	return pcm, total, nil
}

// writeWAV encodes interleaved PCM16 samples as a standard PCM WAV file.
func writeWAV(path string, pcm []int16, channels, sampleRate int) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	enc := wav.NewEncoder(w, sampleRate, bitsPerPCM, channels, wavFormat)
	defer enc.Close()

	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitsPerPCM,
		Data:           data,
	}
	return enc.Write(buf)
}
