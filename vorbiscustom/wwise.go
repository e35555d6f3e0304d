/*
NAME
  wwise.go

DESCRIPTION
  wwise.go reconstructs the Vorbis packet stream Audiokinetic Wwise carries
  (spec.md §4.G, Wwise variant), the hardest of the seven: Wwise strips
  redundant fields from the setup packet and, in some encoder versions, from
  audio packets too, to save space. This file ports hcs's ww2ogg
  (https://github.com/hcs64/ww2ogg) reconstruction: codebook inflation
  (copied untouched, rebuilt from an inline simplified encoding, or rebuilt
  from an externally supplied vendor codebook table), full floor/residue/
  mapping/mode reconstruction for the non-WWV_FULL_SETUP case, and — for
  "modified" audio packets — reinserting the packet type bit and the window
  flags the encoder strips out, which requires peeking at the next packet's
  first byte to know its block-size mode.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vorbiscustom

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/bitreader"
	"github.com/ausocean/vgmcodec/streamfile"
)

// WwiseVersion names the Wwise Vorbis plugin version that encoded a stream;
// it picks the header/packet/setup encoding the stream uses
// (setup_version_config).
type WwiseVersion int

const (
	WwiseV34 WwiseVersion = 34
	WwiseV38 WwiseVersion = 38
	WwiseV44 WwiseVersion = 44
	WwiseV48 WwiseVersion = 48
	WwiseV52 WwiseVersion = 52
	WwiseV53 WwiseVersion = 53
	WwiseV56 WwiseVersion = 56
	WwiseV62 WwiseVersion = 62
)

// NewWwiseConfig derives the WwiseSetup/WwiseHeaderType pair a given plugin
// version and blocksize pair imply, matching setup_version_config. Most
// Wwise streams use the same long/short blocksize, which downgrades the
// packet encoding to WWV_STANDARD even on versions that would otherwise use
// WWV_MODIFIED (vorbis_custom_setup_init_wwise's blocksize_0_exp ==
// blocksize_1_exp special case).
func NewWwiseConfig(version WwiseVersion, channels, sampleRate, blockSizeExp0, blockSizeExp1 int) Config {
	cfg := Config{
		Variant:       VariantWwise,
		Channels:      channels,
		SampleRate:    sampleRate,
		BlockSizeExp0: blockSizeExp0,
		BlockSizeExp1: blockSizeExp1,
	}
	switch {
	case version == WwiseV34:
		cfg.WwiseHeaderType = WwiseHeaderType8
		cfg.WwiseSetup = WwiseSetupHeaderTriad
	case version == WwiseV38:
		cfg.WwiseHeaderType = WwiseHeaderType6
		cfg.WwiseSetup = WwiseSetupFull
	case version == WwiseV44:
		cfg.WwiseHeaderType = WwiseHeaderType6
		cfg.WwiseSetup = WwiseSetupInlineCodebooks
	case version == WwiseV48 || version == WwiseV52:
		cfg.WwiseHeaderType = WwiseHeaderType6
		cfg.WwiseSetup = WwiseSetupExternalCodebooks
	case version == WwiseV53 || version == WwiseV56:
		cfg.WwiseHeaderType = WwiseHeaderType2
		cfg.WwiseSetup = WwiseSetupExternalCodebooks
	case version == WwiseV62:
		cfg.WwiseHeaderType = WwiseHeaderType2
		cfg.WwiseSetup = WwiseSetupAoTuV603Codebooks
	}
	// wwiseModified folds the blocksize_0_exp == blocksize_1_exp downgrade
	// (WWV_STANDARD regardless of version) in directly from cfg, so nothing
	// further is needed here.
	return cfg
}

// tremorIlog is Xiph Tremor's fixed-point integer log2-plus-one
// (ww2ogg_tremor_ilog): the bit-width needed to hold v.
func tremorIlog(v uint32) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

// maptype1Quantvals finds the quantization value count for a type-1 VQ
// lookup table (ww2ogg_tremor_book_maptype1_quantvals).
func maptype1Quantvals(entries, dimensions uint32) uint32 {
	bits := tremorIlog(entries)
	vals := entries >> uint((bits-1)*int(dimensions-1)/int(dimensions))
	for {
		var acc, acc1 uint64 = 1, 1
		for i := uint32(0); i < dimensions; i++ {
			acc *= uint64(vals)
			acc1 *= uint64(vals + 1)
		}
		switch {
		case acc <= uint64(entries) && acc1 > uint64(entries):
			return vals
		case acc > uint64(entries):
			vals--
		default:
			vals++
		}
	}
}

// copyCodebook copies a Wwise codebook that was stored untouched
// (WWV_FULL_SETUP) straight through, field by field, validating the "VCB"
// marker along the way (ww2ogg_codebook_library_copy).
func copyCodebook(w *bitreader.WriterLSB, r *bitreader.LSBReader) error {
	id := r.ReadBits(24)
	w.WriteBits(id, 24)
	if id != 0x564342 {
		return errors.New("vorbiscustom: invalid Wwise codebook id")
	}
	dimensions := r.ReadBits(16)
	w.WriteBits(dimensions, 16)
	entries := r.ReadBits(24)
	w.WriteBits(entries, 24)

	if err := copyCodebookLengths(w, r, entries, 5); err != nil {
		return err
	}
	return copyCodebookLookup(w, r, entries, dimensions)
}

// rebuildCodebook inflates a Wwise codebook stored in the simplified inline
// or external-table encoding back into a standard Vorbis codebook
// (ww2ogg_codebook_library_rebuild). cbSize, when nonzero, is the known
// external codebook blob size used to sanity-check byte consumption.
func rebuildCodebook(w *bitreader.WriterLSB, r *bitreader.LSBReader, cbSize int) error {
	w.WriteBits(0x564342, 24) // "VCB"

	dimensions := r.ReadBits(4)
	w.WriteBits(dimensions, 16)
	entries := r.ReadBits(14)
	w.WriteBits(entries, 24)

	ordered := r.ReadBits(1)
	w.WriteBits(ordered, 1)
	if ordered != 0 {
		if err := copyOrderedLengths(w, r, entries); err != nil {
			return err
		}
	} else {
		lengthLen := r.ReadBits(3)
		sparse := r.ReadBits(1)
		w.WriteBits(sparse, 1)
		if lengthLen == 0 || lengthLen > 5 {
			return errors.New("vorbiscustom: nonsense Wwise codeword length")
		}
		for i := uint32(0); i < entries; i++ {
			present := uint32(1)
			if sparse != 0 {
				present = r.ReadBits(1)
				w.WriteBits(present, 1)
			}
			if present != 0 {
				length := r.ReadBits(int(lengthLen))
				w.WriteBits(length, 5)
			}
		}
	}

	lookupType := r.ReadBits(1)
	w.WriteBits(lookupType, 4)
	if err := copyLookupTable(w, r, lookupType, entries, dimensions); err != nil {
		return err
	}

	if cbSize != 0 && r.BytesConsumed() != cbSize {
		return errors.Errorf("vorbiscustom: Wwise codebook size mismatch (want %d, read %d)", cbSize, r.BytesConsumed())
	}
	return nil
}

func copyCodebookLengths(w *bitreader.WriterLSB, r *bitreader.LSBReader, entries uint32, lengthBits int) error {
	ordered := r.ReadBits(1)
	w.WriteBits(ordered, 1)
	if ordered != 0 {
		return copyOrderedLengths(w, r, entries)
	}
	sparse := r.ReadBits(1)
	w.WriteBits(sparse, 1)
	for i := uint32(0); i < entries; i++ {
		present := uint32(1)
		if sparse != 0 {
			present = r.ReadBits(1)
			w.WriteBits(present, 1)
		}
		if present != 0 {
			length := r.ReadBits(lengthBits)
			w.WriteBits(length, lengthBits)
		}
	}
	return nil
}

func copyOrderedLengths(w *bitreader.WriterLSB, r *bitreader.LSBReader, entries uint32) error {
	initialLength := r.ReadBits(5)
	w.WriteBits(initialLength, 5)
	var current uint32
	for current < entries {
		n := tremorIlog(entries - current)
		number := r.ReadBits(n)
		w.WriteBits(number, n)
		current += number
	}
	if current > entries {
		return errors.New("vorbiscustom: Wwise codebook ordered length overruns entry count")
	}
	return nil
}

func copyCodebookLookup(w *bitreader.WriterLSB, r *bitreader.LSBReader, entries, dimensions uint32) error {
	lookupType := r.ReadBits(4)
	w.WriteBits(lookupType, 4)
	return copyLookupTable(w, r, lookupType, entries, dimensions)
}

func copyLookupTable(w *bitreader.WriterLSB, r *bitreader.LSBReader, lookupType, entries, dimensions uint32) error {
	switch lookupType {
	case 0:
		return nil
	case 1:
		min := r.ReadBits(32)
		w.WriteBits(min, 32)
		max := r.ReadBits(32)
		w.WriteBits(max, 32)
		valueLength := r.ReadBits(4)
		w.WriteBits(valueLength, 4)
		sequenceFlag := r.ReadBits(1)
		w.WriteBits(sequenceFlag, 1)

		quantvals := maptype1Quantvals(entries, dimensions)
		for i := uint32(0); i < quantvals; i++ {
			val := r.ReadBits(int(valueLength) + 1)
			w.WriteBits(val, int(valueLength)+1)
		}
		return nil
	default:
		return errors.New("vorbiscustom: unsupported Wwise codebook lookup type")
	}
}

// rebuildCodebookByID inflates an externally-tabled codebook named by id,
// resolved through the caller-supplied CodebookSource.
func rebuildCodebookByID(w *bitreader.WriterLSB, codebooks CodebookSource, id uint32) error {
	if codebooks == nil {
		return errors.New("vorbiscustom: Wwise external codebooks require Config.Codebooks")
	}
	raw, err := codebooks.Codebook(id)
	if err != nil {
		return errors.Wrapf(err, "vorbiscustom: resolving Wwise codebook %d", id)
	}
	r := bitreader.NewLSBReader(raw)
	return rebuildCodebook(w, r, len(raw))
}

// wwiseSetupInfo carries the mode-table facts rebuildAudioPacket needs back
// out of a rebuilt setup packet (ww2ogg's data->mode_bits/mode_blockflag).
type wwiseSetupInfo struct {
	modeBits      int
	modeBlockflag []bool
}

// generateVorbisSetup rebuilds a full Vorbis setup packet from a Wwise one
// (ww2ogg_generate_vorbis_setup).
func generateVorbisSetup(cfg Config, packet []byte) ([]byte, wwiseSetupInfo, error) {
	r := bitreader.NewLSBReader(packet)
	w := bitreader.NewWriterLSB()
	w.WriteBits(packetTypeSetup, 8)
	for _, b := range vorbisID {
		w.WriteBits(uint32(b), 8)
	}

	codebookCountLess1 := r.ReadBits(8)
	w.WriteBits(codebookCountLess1, 8)
	codebookCount := codebookCountLess1 + 1

	switch cfg.WwiseSetup {
	case WwiseSetupFull:
		for i := uint32(0); i < codebookCount; i++ {
			if err := copyCodebook(w, r); err != nil {
				return nil, wwiseSetupInfo{}, err
			}
		}
	case WwiseSetupInlineCodebooks:
		for i := uint32(0); i < codebookCount; i++ {
			if err := rebuildCodebook(w, r, 0); err != nil {
				return nil, wwiseSetupInfo{}, err
			}
		}
	default: // external or AoTuV 6.03 codebook tables
		for i := uint32(0); i < codebookCount; i++ {
			id := r.ReadBits(10)
			if err := rebuildCodebookByID(w, cfg.Codebooks, id); err != nil {
				return nil, wwiseSetupInfo{}, err
			}
		}
	}

	w.WriteBits(0, 6)  // time_count_less1 (always 0, the only legal value)
	w.WriteBits(0, 16) // dummy placeholder time-domain-transform entry

	var info wwiseSetupInfo
	if cfg.WwiseSetup == WwiseSetupFull {
		totalBits := r.BitPosition()
		packetBits := len(packet) * 8
		for totalBits < packetBits {
			w.WriteBits(r.ReadBits(1), 1)
			totalBits = r.BitPosition()
		}
	} else {
		var err error
		info, err = rebuildSetupBody(w, r, int(codebookCount), cfg.Channels)
		if err != nil {
			return nil, wwiseSetupInfo{}, err
		}
	}

	w.WriteBits(1, 1) // framing bit
	return w.Bytes(), info, nil
}

// rebuildSetupBody reconstructs the floor/residue/mapping/mode sections of
// a non-WWV_FULL_SETUP Wwise setup packet (the second half of
// ww2ogg_generate_vorbis_setup).
func rebuildSetupBody(w *bitreader.WriterLSB, r *bitreader.LSBReader, codebookCount, channels int) (wwiseSetupInfo, error) {
	floorCountLess1 := r.ReadBits(6)
	w.WriteBits(floorCountLess1, 6)
	floorCount := int(floorCountLess1) + 1

	for i := 0; i < floorCount; i++ {
		w.WriteBits(1, 16) // floor_type: always 1

		partitions := r.ReadBits(5)
		w.WriteBits(partitions, 5)

		classList := make([]uint32, partitions)
		var maxClass uint32
		for j := range classList {
			class := r.ReadBits(4)
			w.WriteBits(class, 4)
			classList[j] = class
			if class > maxClass {
				maxClass = class
			}
		}

		classDims := make([]uint32, maxClass+1)
		for j := uint32(0); j <= maxClass; j++ {
			dimsLess1 := r.ReadBits(3)
			w.WriteBits(dimsLess1, 3)
			classDims[j] = dimsLess1 + 1

			subclasses := r.ReadBits(2)
			w.WriteBits(subclasses, 2)
			if subclasses != 0 {
				master := r.ReadBits(8)
				w.WriteBits(master, 8)
				if int(master) >= codebookCount {
					return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise floor1 masterbook")
				}
			}
			for k := 0; k < 1<<subclasses; k++ {
				bookPlus1 := r.ReadBits(8)
				w.WriteBits(bookPlus1, 8)
				if book := int(bookPlus1) - 1; book >= 0 && book >= codebookCount {
					return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise floor1 subclass book")
				}
			}
		}

		w.WriteBits(r.ReadBits(2), 2) // floor1_multiplier_less1
		rangeBits := r.ReadBits(4)
		w.WriteBits(rangeBits, 4)

		for j := range classList {
			for k := uint32(0); k < classDims[classList[j]]; k++ {
				w.WriteBits(r.ReadBits(int(rangeBits)), int(rangeBits))
			}
		}
	}

	residueCountLess1 := r.ReadBits(6)
	w.WriteBits(residueCountLess1, 6)
	residueCount := int(residueCountLess1) + 1

	for i := 0; i < residueCount; i++ {
		residueType := r.ReadBits(2)
		w.WriteBits(residueType, 16)
		if residueType > 2 {
			return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise residue type")
		}

		w.WriteBits(r.ReadBits(24), 24) // residue_begin
		w.WriteBits(r.ReadBits(24), 24) // residue_end
		w.WriteBits(r.ReadBits(24), 24) // residue_partition_size_less1
		classLess1 := r.ReadBits(6)
		w.WriteBits(classLess1, 6)
		classbook := r.ReadBits(8)
		w.WriteBits(classbook, 8)
		if int(classbook) >= codebookCount {
			return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise residue classbook")
		}
		classifications := classLess1 + 1

		cascade := make([]uint32, classifications)
		for j := range cascade {
			low := r.ReadBits(3)
			w.WriteBits(low, 3)
			bitflag := r.ReadBits(1)
			w.WriteBits(bitflag, 1)
			var high uint32
			if bitflag != 0 {
				high = r.ReadBits(5)
				w.WriteBits(high, 5)
			}
			cascade[j] = high*8 + low
		}
		for j := range cascade {
			for k := uint32(0); k < 8; k++ {
				if cascade[j]&(1<<k) == 0 {
					continue
				}
				book := r.ReadBits(8)
				w.WriteBits(book, 8)
				if int(book) >= codebookCount {
					return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise residue book")
				}
			}
		}
	}

	mappingCountLess1 := r.ReadBits(6)
	w.WriteBits(mappingCountLess1, 6)
	mappingCount := mappingCountLess1 + 1

	for i := uint32(0); i < mappingCount; i++ {
		w.WriteBits(0, 16) // mapping_type: always 0

		submapsFlag := r.ReadBits(1)
		w.WriteBits(submapsFlag, 1)
		submaps := uint32(1)
		if submapsFlag != 0 {
			submapsLess1 := r.ReadBits(4)
			w.WriteBits(submapsLess1, 4)
			submaps = submapsLess1 + 1
		}

		squarePolar := r.ReadBits(1)
		w.WriteBits(squarePolar, 1)
		if squarePolar != 0 {
			stepsLess1 := r.ReadBits(8)
			w.WriteBits(stepsLess1, 8)
			steps := stepsLess1 + 1
			bits := tremorIlog(uint32(channels - 1))
			for j := uint32(0); j < steps; j++ {
				magnitude := r.ReadBits(bits)
				w.WriteBits(magnitude, bits)
				angle := r.ReadBits(bits)
				w.WriteBits(angle, bits)
				if angle == magnitude || int(magnitude) >= channels || int(angle) >= channels {
					return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise channel coupling")
				}
			}
		}

		reserved := r.ReadBits(2)
		w.WriteBits(reserved, 2)
		if reserved != 0 {
			return wwiseSetupInfo{}, errors.New("vorbiscustom: Wwise mapping reserved field nonzero")
		}

		if submaps > 1 {
			for j := 0; j < channels; j++ {
				mux := r.ReadBits(4)
				w.WriteBits(mux, 4)
				if mux >= submaps {
					return wwiseSetupInfo{}, errors.New("vorbiscustom: Wwise mapping_mux out of range")
				}
			}
		}

		for j := uint32(0); j < submaps; j++ {
			w.WriteBits(r.ReadBits(8), 8) // time_config placeholder

			floorNum := r.ReadBits(8)
			w.WriteBits(floorNum, 8)
			if int(floorNum) >= floorCount {
				return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise floor mapping")
			}
			residueNum := r.ReadBits(8)
			w.WriteBits(residueNum, 8)
			if int(residueNum) >= residueCount {
				return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise residue mapping")
			}
		}
	}

	modeCountLess1 := r.ReadBits(6)
	w.WriteBits(modeCountLess1, 6)
	modeCount := modeCountLess1 + 1

	modeBlockflag := make([]bool, modeCount)
	for i := uint32(0); i < modeCount; i++ {
		blockFlag := r.ReadBits(1)
		w.WriteBits(blockFlag, 1)
		modeBlockflag[i] = blockFlag != 0

		w.WriteBits(0, 16) // window type: always 0
		w.WriteBits(0, 16) // transform type: always 0

		mapping := r.ReadBits(8)
		w.WriteBits(mapping, 8)
		if mapping >= mappingCount {
			return wwiseSetupInfo{}, errors.New("vorbiscustom: invalid Wwise mode mapping")
		}
	}
	return wwiseSetupInfo{modeBits: tremorIlog(modeCount - 1), modeBlockflag: modeBlockflag}, nil
}

// wwisePacketHeader is one packet's Wwise mini-header (wpacket_t).
type wwisePacketHeader struct {
	headerSize int
	packetSize int
	granulePos int32
}

func readWwisePacketHeader(buf []byte, headerType WwiseHeaderType, bigEndian bool) (wwisePacketHeader, error) {
	order := binary.ByteOrder(binary.LittleEndian)
	if bigEndian {
		order = binary.BigEndian
	}
	switch headerType {
	case WwiseHeaderType8:
		return wwisePacketHeader{
			headerSize: 8,
			packetSize: int(order.Uint32(buf[0:4])),
			granulePos: int32(order.Uint32(buf[4:8])),
		}, nil
	case WwiseHeaderType6:
		return wwisePacketHeader{
			headerSize: 6,
			packetSize: int(order.Uint16(buf[0:2])),
			granulePos: int32(order.Uint32(buf[2:6])),
		}, nil
	case WwiseHeaderType2:
		return wwisePacketHeader{
			headerSize: 2,
			packetSize: int(order.Uint16(buf[0:2])),
		}, nil
	default:
		return wwisePacketHeader{}, errors.New("vorbiscustom: unknown Wwise header type")
	}
}

// wwiseModified is true when audio packets are missing their packet-type
// bit and window-mode flags (WWV_MODIFIED); only used by encoder versions
// with distinct long/short blocksizes (setup_version_config).
func wwiseModified(cfg Config) bool {
	return cfg.BlockSizeExp0 != cfg.BlockSizeExp1 &&
		(cfg.WwiseSetup == WwiseSetupExternalCodebooks || cfg.WwiseSetup == WwiseSetupAoTuV603Codebooks) &&
		cfg.WwiseHeaderType == WwiseHeaderType2
}

type wwiseSource struct {
	src    streamfile.ByteSource
	offset int64
	cfg    Config

	modeBits      int
	modeBlockflag []bool
	prevBlockflag bool
}

func newWwiseSource(src streamfile.ByteSource, offset int64, cfg Config) *wwiseSource {
	return &wwiseSource{src: src, offset: offset, cfg: cfg}
}

const wwiseMaxPacketBytes = 0x8000

func (s *wwiseSource) readRawPacket(isSetup bool) (wwisePacketHeader, []byte, error) {
	hdrBuf := make([]byte, 8)
	if err := streamfile.ReadFull(s.src, hdrBuf, s.offset); err != nil {
		return wwisePacketHeader{}, nil, err
	}
	hdr, err := readWwisePacketHeader(hdrBuf, s.cfg.WwiseHeaderType, s.cfg.BigEndian)
	if err != nil {
		return wwisePacketHeader{}, nil, err
	}
	if hdr.packetSize == 0 {
		return wwisePacketHeader{}, nil, errors.New("vorbiscustom: empty Wwise packet")
	}

	if hdr.packetSize > wwiseMaxPacketBytes {
		return wwisePacketHeader{}, nil, errors.New("vorbiscustom: Wwise packet too large")
	}

	data := make([]byte, hdr.packetSize, hdr.packetSize+1)
	if err := streamfile.ReadFull(s.src, data, s.offset+int64(hdr.headerSize)); err != nil {
		return wwisePacketHeader{}, nil, err
	}
	if !isSetup && wwiseModified(s.cfg) {
		// Window-flag lookahead: append the next packet's first byte, which
		// follows that packet's own size header; omitted after the last packet.
		var next [1]byte
		nextData := s.offset + int64(2*hdr.headerSize+hdr.packetSize)
		if n, _ := s.src.ReadAt(next[:], nextData); n == 1 {
			data = append(data, next[0])
		}
	}
	return hdr, data, nil
}

func (s *wwiseSource) headerPackets() ([][]byte, error) {
	if s.cfg.WwiseSetup == WwiseSetupHeaderTriad {
		var packets [][]byte
		for i := 0; i < 3; i++ {
			hdr, data, err := s.readRawPacket(true)
			if err != nil {
				return nil, err
			}
			packets = append(packets, data[:hdr.packetSize])
			s.offset += int64(hdr.headerSize + hdr.packetSize)
		}
		return packets, nil
	}

	idPacket := buildIdentification(s.cfg)
	commentPacket := buildComment()

	hdr, data, err := s.readRawPacket(true)
	if err != nil {
		return nil, err
	}
	setupPacket, info, err := generateVorbisSetup(s.cfg, data[:hdr.packetSize])
	if err != nil {
		return nil, err
	}
	s.modeBits = info.modeBits
	s.modeBlockflag = info.modeBlockflag
	s.offset += int64(hdr.headerSize + hdr.packetSize)

	return [][]byte{idPacket, commentPacket, setupPacket}, nil
}

func (s *wwiseSource) nextAudioPacket() ([]byte, int64, error) {
	if s.offset >= s.src.Size() {
		return nil, 0, io.EOF
	}
	hdr, data, err := s.readRawPacket(false)
	if err != nil {
		return nil, 0, err
	}
	s.offset += int64(hdr.headerSize + hdr.packetSize)

	packet, err := s.rebuildAudioPacket(hdr, data)
	if err != nil {
		return nil, 0, err
	}
	return packet, int64(hdr.granulePos), nil
}

// rebuildAudioPacket produces a standard Vorbis audio packet from a Wwise
// one (ww2ogg_generate_vorbis_packet): a straight copy for WWV_STANDARD
// packets, or a reinsertion of the packet-type bit and window-mode flags
// for WWV_MODIFIED ones.
func (s *wwiseSource) rebuildAudioPacket(hdr wwisePacketHeader, data []byte) ([]byte, error) {
	if !wwiseModified(s.cfg) {
		return data[:hdr.packetSize], nil
	}

	r := bitreader.NewLSBReader(data)
	w := bitreader.NewWriterLSB()
	w.WriteBits(0, 1) // audio packet type

	modeNumber := r.ReadBits(s.modeBits)
	w.WriteBits(modeNumber, s.modeBits)
	remainder := r.ReadBits(8 - s.modeBits)

	if int(modeNumber) < len(s.modeBlockflag) && s.modeBlockflag[modeNumber] {
		var nextBlockflag bool
		if hdr.packetSize < len(data) {
			nr := bitreader.NewLSBReader(data[hdr.packetSize:])
			nextMode := nr.ReadBits(s.modeBits)
			nextBlockflag = int(nextMode) < len(s.modeBlockflag) && s.modeBlockflag[nextMode]
		}
		w.WriteBits(b2u(s.prevBlockflag), 1)
		w.WriteBits(b2u(nextBlockflag), 1)
	}
	s.prevBlockflag = int(modeNumber) < len(s.modeBlockflag) && s.modeBlockflag[modeNumber]

	w.WriteBits(remainder, 8-s.modeBits)

	for i := 0; i < hdr.packetSize-1; i++ {
		w.WriteBits(r.ReadBits(8), 8)
	}
	return w.Bytes(), nil
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
