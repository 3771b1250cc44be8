/*
NAME
  tables.go

DESCRIPTION
  tables.go carries VP8's static rate-control tables: the precomputed
  bits-per-mb table (indexed directly by qindex, not derived from an
  AC-quant formula the way VP9/AV1 are), the quantizer<->qindex
  translation, and the min-Q tables used by the active-quality step.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vp8

import "github.com/ausocean/brc/rc"

// qindexRange is VP8's qindex space: narrower than VP9/AV1's 256-entry space.
const qindexRange = 128

// qTrans maps a caller-facing quantizer (0-63) to VP8's internal qindex.
var qTrans = [64]int{
	0, 1, 2, 3, 4, 5, 7, 8, 9, 10, 12, 13, 15, 17, 18, 19,
	20, 21, 23, 24, 25, 26, 27, 28, 29, 30, 31, 33, 35, 37, 39, 41,
	43, 45, 47, 49, 51, 53, 55, 57, 59, 61, 64, 67, 70, 73, 76, 79,
	82, 85, 88, 91, 94, 97, 100, 103, 106, 109, 112, 115, 118, 121, 124, 127,
}

// quantizerToQindex converts a caller-facing quantizer in [0, 63] to VP8's
// internal qindex space.
func quantizerToQindex(quantizer int) int {
	if quantizer < 0 {
		quantizer = 0
	} else if quantizer > 63 {
		quantizer = 63
	}
	return qTrans[quantizer]
}

// bitsPerMBTable is VP8's precomputed bits-per-macroblock table, indexed
// [frame_type][qindex] and scaled by 512 (1<<rc.BPerMBNormBits). Its values
// assume bits-per-mb is inversely proportional to the quantizer.
var bitsPerMBTable = [2][qindexRange]int{
	// Key frame: 450000/Qintra.
	{
		1125000, 900000, 750000, 642857, 562500, 500000, 450000, 450000, 409090,
		375000, 346153, 321428, 300000, 281250, 264705, 264705, 250000, 236842,
		225000, 225000, 214285, 214285, 204545, 204545, 195652, 195652, 187500,
		180000, 180000, 173076, 166666, 160714, 155172, 150000, 145161, 140625,
		136363, 132352, 128571, 125000, 121621, 121621, 118421, 115384, 112500,
		109756, 107142, 104651, 102272, 100000, 97826, 97826, 95744, 93750,
		91836, 90000, 88235, 86538, 84905, 83333, 81818, 80357, 78947,
		77586, 76271, 75000, 73770, 72580, 71428, 70312, 69230, 68181,
		67164, 66176, 65217, 64285, 63380, 62500, 61643, 60810, 60000,
		59210, 59210, 58441, 57692, 56962, 56250, 55555, 54878, 54216,
		53571, 52941, 52325, 51724, 51136, 50561, 49450, 48387, 47368,
		46875, 45918, 45000, 44554, 44117, 43269, 42452, 41666, 40909,
		40178, 39473, 38793, 38135, 36885, 36290, 35714, 35156, 34615,
		34090, 33582, 33088, 32608, 32142, 31468, 31034, 30405, 29801,
		29220, 28662,
	},
	// Inter frame: 285000/Qinter.
	{
		712500, 570000, 475000, 407142, 356250, 316666, 285000, 259090, 237500,
		219230, 203571, 190000, 178125, 167647, 158333, 150000, 142500, 135714,
		129545, 123913, 118750, 114000, 109615, 105555, 101785, 98275, 95000,
		91935, 89062, 86363, 83823, 81428, 79166, 77027, 75000, 73076,
		71250, 69512, 67857, 66279, 64772, 63333, 61956, 60638, 59375,
		58163, 57000, 55882, 54807, 53773, 52777, 51818, 50892, 50000,
		49137, 47500, 45967, 44531, 43181, 41911, 40714, 39583, 38513,
		37500, 36538, 35625, 34756, 33928, 33139, 32386, 31666, 30978,
		30319, 29687, 29081, 28500, 27941, 27403, 26886, 26388, 25909,
		25446, 25000, 24568, 23949, 23360, 22800, 22265, 21755, 21268,
		20802, 20357, 19930, 19520, 19127, 18750, 18387, 18037, 17701,
		17378, 17065, 16764, 16473, 16101, 15745, 15405, 15079, 14766,
		14467, 14179, 13902, 13636, 13380, 13133, 12895, 12666, 12445,
		12179, 11924, 11632, 11445, 11220, 11003, 10795, 10594, 10401,
		10215, 10035,
	},
}

// kfHighMotionMinq and interMinq are VP8's fixed min-Q tables, indexed by
// active_worst_quality, used in the ni_frames > 150 branch of compute_qp to
// set active_best_quality. Unlike VP9/AV1, VP8 does not derive these from a
// cubic fit; they are static tables in the reference rate controller.
var kfHighMotionMinq = [qindexRange]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 5,
	5, 5, 5, 5, 5, 6, 6, 6, 6, 7, 7, 8, 8, 8, 8, 9, 9, 10, 10,
	10, 10, 11, 11, 11, 11, 12, 12, 13, 13, 13, 13, 14, 14, 15, 15, 15, 15, 16,
	16, 16, 16, 17, 17, 18, 18, 18, 18, 19, 19, 20, 20, 20, 20, 21, 21, 21, 21,
	22, 22, 23, 23, 24, 25, 25, 26, 26, 27, 28, 28, 29, 30,
}

var interMinq = [qindexRange]int{
	0, 0, 1, 1, 2, 3, 3, 4, 4, 5, 6, 6, 7, 8, 8, 9, 9, 10, 11,
	11, 12, 13, 13, 14, 15, 15, 16, 17, 17, 18, 19, 20, 20, 21, 22, 22, 23, 24,
	24, 25, 26, 27, 27, 28, 29, 30, 30, 31, 32, 33, 33, 34, 35, 36, 36, 37, 38,
	39, 39, 40, 41, 42, 42, 43, 44, 45, 46, 46, 47, 48, 49, 50, 50, 51, 52, 53,
	54, 55, 55, 56, 57, 58, 59, 60, 60, 61, 62, 63, 64, 65, 66, 67, 67, 68, 69,
	70, 71, 72, 73, 74, 75, 75, 76, 77, 78, 79, 80, 81, 82, 83, 84, 85, 86, 86,
	87, 88, 89, 90, 91, 92, 93, 94, 95, 96, 97, 98, 99, 100,
}

// kfBoostQAdjustment and gfBoostQAdjustment scale the key/golden-frame boost
// based on ambient Q, indexed by qindex.
var kfBoostQAdjustment = [qindexRange]int{
	128, 129, 130, 131, 132, 133, 134, 135, 136, 137, 138, 139, 140, 141, 142,
	143, 144, 145, 146, 147, 148, 149, 150, 151, 152, 153, 154, 155, 156, 157,
	158, 159, 160, 161, 162, 163, 164, 165, 166, 167, 168, 169, 170, 171, 172,
	173, 174, 175, 176, 177, 178, 179, 180, 181, 182, 183, 184, 185, 186, 187,
	188, 189, 190, 191, 192, 193, 194, 195, 196, 197, 198, 199, 200, 200, 201,
	201, 202, 203, 203, 203, 204, 204, 205, 205, 206, 206, 207, 207, 208, 208,
	209, 209, 210, 210, 211, 211, 212, 212, 213, 213, 214, 214, 215, 215, 216,
	216, 217, 217, 218, 218, 219, 219, 220, 220, 220, 220, 220, 220, 220, 220,
	220, 220, 220, 220, 220, 220, 220, 220,
}

var gfBoostQAdjustment = [qindexRange]int{
	80, 82, 84, 86, 88, 90, 92, 94, 96, 97, 98, 99, 100, 101, 102,
	103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114, 115, 116, 117,
	118, 119, 120, 121, 122, 123, 124, 125, 126, 127, 128, 129, 130, 131, 132,
	133, 134, 135, 136, 137, 138, 139, 140, 141, 142, 143, 144, 145, 146, 147,
	148, 149, 150, 151, 152, 153, 154, 155, 156, 157, 158, 159, 160, 161, 162,
	163, 164, 165, 166, 167, 168, 169, 170, 171, 172, 173, 174, 175, 176, 177,
	178, 179, 180, 181, 182, 183, 184, 184, 185, 185, 186, 186, 187, 187, 188,
	188, 189, 189, 190, 190, 191, 191, 192, 192, 193, 193, 194, 194, 194, 194,
	195, 195, 196, 196, 197, 197, 198, 198,
}

// kfGfBoostQlimits caps the golden-frame boost for one-pass encodes, indexed
// by qindex.
var kfGfBoostQlimits = [qindexRange]int{
	150, 155, 160, 165, 170, 175, 180, 185, 190, 195, 200, 205, 210, 215, 220,
	225, 230, 235, 240, 245, 250, 255, 260, 265, 270, 275, 280, 285, 290, 295,
	300, 305, 310, 320, 330, 340, 350, 360, 370, 380, 390, 400, 410, 420, 430,
	440, 450, 460, 470, 480, 490, 500, 510, 520, 530, 540, 550, 560, 570, 580,
	590, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600,
	600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600,
	600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600,
	600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600, 600,
	600, 600, 600, 600, 600, 600, 600, 600,
}

// bitsPerMB looks up VP8's precomputed bits-per-mb table at qindex for ft,
// scaled by correctionFactor. bitDepth is accepted only to satisfy
// rc.BitsPerMBFunc's shared signature; VP8 has no bit-depth concept.
func bitsPerMB(ft rc.FrameType, qindex int, correctionFactor float64, _ int) int64 {
	return int64(0.5 + correctionFactor*float64(bitsPerMBTable[rc.FTIndex(ft)][qindex]))
}
