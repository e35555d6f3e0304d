/*
NAME
  tables.go

DESCRIPTION
  tables.go holds MicroTalk's fixed tables: the 64-entry reflection
  coefficient lookup, the two 256-entry multi-pulse command codebooks (one
  per excitation model), and the 29-entry command table those codebooks
  index into.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package utk

// excitation model selectors (MDL_NORMAL / MDL_LARGEPULSE).
const (
	modelNormal = 0
	modelLarge  = 1
)

// rcTable maps a 6-bit (or 5-bit, offset by 16) index to a reflection
// coefficient.
var rcTable = [64]float32{
	+0.0,
	-.99677598476409912109375, -.99032700061798095703125, -.983879029750823974609375, -.977430999279022216796875,
	-.970982015132904052734375, -.964533984661102294921875, -.958085000514984130859375, -.9516370296478271484375,
	-.930754005908966064453125, -.904959976673126220703125, -.879167020320892333984375, -.853372991085052490234375,
	-.827579021453857421875, -.801786005496978759765625, -.775991976261138916015625, -.75019800662994384765625,
	-.724404990673065185546875, -.6986110210418701171875, -.6706349849700927734375, -.61904799938201904296875,
	-.567460000514984130859375, -.515873014926910400390625, -.4642859995365142822265625, -.4126980006694793701171875,
	-.361110985279083251953125, -.309523999691009521484375, -.257937014102935791015625, -.20634900033473968505859375,
	-.1547619998455047607421875, -.10317499935626983642578125, -.05158700048923492431640625,
	+0.0,
	+.05158700048923492431640625, +.10317499935626983642578125, +.1547619998455047607421875, +.20634900033473968505859375,
	+.257937014102935791015625, +.309523999691009521484375, +.361110985279083251953125, +.4126980006694793701171875,
	+.4642859995365142822265625, +.515873014926910400390625, +.567460000514984130859375, +.61904799938201904296875,
	+.6706349849700927734375, +.6986110210418701171875, +.724404990673065185546875, +.75019800662994384765625,
	+.775991976261138916015625, +.801786005496978759765625, +.827579021453857421875, +.853372991085052490234375,
	+.879167020320892333984375, +.904959976673126220703125, +.930754005908966064453125, +.9516370296478271484375,
	+.958085000514984130859375, +.964533984661102294921875, +.970982015132904052734375, +.977430999279022216796875,
	+.983879029750823974609375, +.99032700061798095703125, +.99677598476409912109375,
}

// codebooks maps (model, next 8 bits of the bitstream) to one of the 29
// commands in commandTable.
var codebooks = [2][256]uint8{
	{ // normal model
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 17,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 21,
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 18,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 25,
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 17,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 22,
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 18,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 0,
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 17,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 21,
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 18,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 26,
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 17,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 22,
		4, 6, 5, 9, 4, 6, 5, 13, 4, 6, 5, 10, 4, 6, 5, 18,
		4, 6, 5, 9, 4, 6, 5, 14, 4, 6, 5, 10, 4, 6, 5, 2,
	},
	{ // large-pulse model
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 23,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 27,
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 24,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 1,
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 23,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 28,
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 24,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 3,
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 23,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 27,
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 24,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 1,
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 23,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 28,
		4, 11, 7, 15, 4, 12, 8, 19, 4, 11, 7, 16, 4, 12, 8, 24,
		4, 11, 7, 15, 4, 12, 8, 20, 4, 11, 7, 16, 4, 12, 8, 3,
	},
}

// command is one multi-pulse FSM command: which model to switch to, how
// many bits the command code itself occupies, and (for a plain coded pulse)
// its signed magnitude.
type command struct {
	nextModel int
	codeSize  int
	pulse     float32
}

var commandTable = [29]command{
	{modelLarge, 8, 0},
	{modelLarge, 7, 0},
	{modelNormal, 8, 0},
	{modelNormal, 7, 0},
	{modelNormal, 2, 0},
	{modelNormal, 2, -1},
	{modelNormal, 2, +1},
	{modelNormal, 3, -1},
	{modelNormal, 3, +1},
	{modelLarge, 4, -2},
	{modelLarge, 4, +2},
	{modelLarge, 3, -2},
	{modelLarge, 3, +2},
	{modelLarge, 5, -3},
	{modelLarge, 5, +3},
	{modelLarge, 4, -3},
	{modelLarge, 4, +3},
	{modelLarge, 6, -4},
	{modelLarge, 6, +4},
	{modelLarge, 5, -4},
	{modelLarge, 5, +4},
	{modelLarge, 7, -5},
	{modelLarge, 7, +5},
	{modelLarge, 6, -5},
	{modelLarge, 6, +5},
	{modelLarge, 8, -6},
	{modelLarge, 8, +6},
	{modelLarge, 7, -6},
	{modelLarge, 7, +6},
}

// sincTaps are the fixed 6-tap symmetric interpolation filter used to
// reconstruct the dropped half of a reduced-bandwidth excitation signal.
var sincTaps = [3]float32{
	0.01803267933428287506103515625,
	0.114591561257839202880859375,
	0.597385942935943603515625,
}
