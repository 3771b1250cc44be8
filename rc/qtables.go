/*
NAME
  qtables.go

DESCRIPTION
  qtables.go implements component A: quantizer-index lookup tables and the
  conversions built on top of them. Table contents are transcribed from the
  libvpx (VP9) and libaom (AV1) reference rate controllers; VP8 keeps its own
  table in rc/vp8/tables.go since it differs in both size and in using a
  directly precomputed bits-per-mb table rather than a formula.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rc

// QIndexRange is the size of the internal qindex space shared by VP9 and
// AV1. VP8 uses a 128-entry space and keeps its own tables.
const QIndexRange = 256

// MaxQ is the largest valid qindex in the VP9/AV1 space.
const MaxQ = QIndexRange - 1

// quantizerToQindex maps the caller-facing quantizer (0-63) to the internal
// qindex space. Shared by VP9 and AV1.
var quantizerToQindex = [64]int{
	0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40, 44, 48,
	52, 56, 60, 64, 68, 72, 76, 80, 84, 88, 92, 96, 100,
	104, 108, 112, 116, 120, 124, 128, 132, 136, 140, 144, 148, 152,
	156, 160, 164, 168, 172, 176, 180, 184, 188, 192, 196, 200, 204,
	208, 212, 216, 220, 224, 228, 232, 236, 240, 244, 249, 255,
}

// QuantizerToQindex converts a caller-facing quantizer in [0, 63] to the
// internal qindex space used by VP9 and AV1.
func QuantizerToQindex(quantizer int) int {
	if quantizer < 0 {
		quantizer = 0
	} else if quantizer > 63 {
		quantizer = 63
	}
	return quantizerToQindex[quantizer]
}

// acQLookup8, acQLookup10 and acQLookup12 are the VP9 AC quantizer-step
// tables, one per bit depth. VP9's reference rate controller carries only AC
// tables (no DC table), and this package carries no DC table for AV1 either.
var acQLookup8 = [QIndexRange]int16{
	4, 8, 9, 10, 11, 12, 13, 14,
	15, 16, 17, 18, 19, 20, 21, 22,
	23, 24, 25, 26, 27, 28, 29, 30,
	31, 32, 33, 34, 35, 36, 37, 38,
	39, 40, 41, 42, 43, 44, 45, 46,
	47, 48, 49, 50, 51, 52, 53, 54,
	55, 56, 57, 58, 59, 60, 61, 62,
	63, 64, 65, 66, 67, 68, 69, 70,
	71, 72, 73, 74, 75, 76, 77, 78,
	79, 80, 81, 82, 83, 84, 85, 86,
	87, 88, 89, 90, 91, 92, 93, 94,
	95, 96, 97, 98, 99, 100, 101, 102,
	104, 106, 108, 110, 112, 114, 116, 118,
	120, 122, 124, 126, 128, 130, 132, 134,
	136, 138, 140, 142, 144, 146, 148, 150,
	152, 155, 158, 161, 164, 167, 170, 173,
	176, 179, 182, 185, 188, 191, 194, 197,
	200, 203, 207, 211, 215, 219, 223, 227,
	231, 235, 239, 243, 247, 251, 255, 260,
	265, 270, 275, 280, 285, 290, 295, 300,
	305, 311, 317, 323, 329, 335, 341, 347,
	353, 359, 366, 373, 380, 387, 394, 401,
	408, 416, 424, 432, 440, 448, 456, 465,
	474, 483, 492, 501, 510, 520, 530, 540,
	550, 560, 571, 582, 593, 604, 615, 627,
	639, 651, 663, 676, 689, 702, 715, 729,
	743, 757, 771, 786, 801, 816, 832, 848,
	864, 881, 898, 915, 933, 951, 969, 988,
	1007, 1026, 1046, 1066, 1087, 1108, 1129, 1151,
	1173, 1196, 1219, 1243, 1267, 1292, 1317, 1343,
	1369, 1396, 1423, 1451, 1479, 1508, 1537, 1567,
	1597, 1628, 1660, 1692, 1725, 1759, 1793, 1828,
}

var acQLookup10 = [QIndexRange]int16{
	4, 9, 11, 13, 16, 18, 21, 24,
	27, 30, 33, 37, 40, 44, 48, 51,
	55, 59, 63, 67, 71, 75, 79, 83,
	88, 92, 96, 100, 105, 109, 114, 118,
	122, 127, 131, 136, 140, 145, 149, 154,
	158, 163, 168, 172, 177, 181, 186, 190,
	195, 199, 204, 208, 213, 217, 222, 226,
	231, 235, 240, 244, 249, 253, 258, 262,
	267, 271, 275, 280, 284, 289, 293, 297,
	302, 306, 311, 315, 319, 324, 328, 332,
	337, 341, 345, 349, 354, 358, 362, 367,
	371, 375, 379, 384, 388, 392, 396, 401,
	409, 417, 425, 433, 441, 449, 458, 466,
	474, 482, 490, 498, 506, 514, 523, 531,
	539, 547, 555, 563, 571, 579, 588, 596,
	604, 616, 628, 640, 652, 664, 676, 688,
	700, 713, 725, 737, 749, 761, 773, 785,
	797, 809, 825, 841, 857, 873, 889, 905,
	922, 938, 954, 970, 986, 1002, 1018, 1038,
	1058, 1078, 1098, 1118, 1138, 1158, 1178, 1198,
	1218, 1242, 1266, 1290, 1314, 1338, 1362, 1386,
	1411, 1435, 1463, 1491, 1519, 1547, 1575, 1603,
	1631, 1663, 1695, 1727, 1759, 1791, 1823, 1859,
	1895, 1931, 1967, 2003, 2039, 2079, 2119, 2159,
	2199, 2239, 2283, 2327, 2371, 2415, 2459, 2507,
	2555, 2603, 2651, 2703, 2755, 2807, 2859, 2915,
	2971, 3027, 3083, 3143, 3203, 3263, 3327, 3391,
	3455, 3523, 3591, 3659, 3731, 3803, 3876, 3952,
	4028, 4104, 4184, 4264, 4348, 4432, 4516, 4604,
	4692, 4784, 4876, 4972, 5068, 5168, 5268, 5372,
	5476, 5584, 5692, 5804, 5916, 6032, 6148, 6268,
	6388, 6512, 6640, 6768, 6900, 7036, 7172, 7312,
}

var acQLookup12 = [QIndexRange]int16{
	4, 13, 19, 27, 35, 44, 54, 64,
	75, 87, 99, 112, 126, 139, 154, 168,
	183, 199, 214, 230, 247, 263, 280, 297,
	314, 331, 349, 366, 384, 402, 420, 438,
	456, 475, 493, 511, 530, 548, 567, 586,
	604, 623, 642, 660, 679, 698, 716, 735,
	753, 772, 791, 809, 828, 846, 865, 884,
	902, 920, 939, 957, 976, 994, 1012, 1030,
	1049, 1067, 1085, 1103, 1121, 1139, 1157, 1175,
	1193, 1211, 1229, 1246, 1264, 1282, 1299, 1317,
	1335, 1352, 1370, 1387, 1405, 1422, 1440, 1457,
	1474, 1491, 1509, 1526, 1543, 1560, 1577, 1595,
	1627, 1660, 1693, 1725, 1758, 1791, 1824, 1856,
	1889, 1922, 1954, 1987, 2020, 2052, 2085, 2118,
	2150, 2183, 2216, 2248, 2281, 2313, 2346, 2378,
	2411, 2459, 2508, 2556, 2605, 2653, 2701, 2750,
	2798, 2847, 2895, 2943, 2992, 3040, 3088, 3137,
	3185, 3234, 3298, 3362, 3426, 3491, 3555, 3619,
	3684, 3748, 3812, 3876, 3941, 4005, 4069, 4149,
	4230, 4310, 4390, 4470, 4550, 4631, 4711, 4791,
	4871, 4967, 5064, 5160, 5256, 5352, 5448, 5544,
	5641, 5737, 5849, 5961, 6073, 6185, 6297, 6410,
	6522, 6650, 6778, 6906, 7034, 7162, 7290, 7435,
	7579, 7723, 7867, 8011, 8155, 8315, 8475, 8635,
	8795, 8956, 9132, 9308, 9484, 9660, 9836, 10028,
	10220, 10412, 10604, 10812, 11020, 11228, 11437, 11661,
	11885, 12109, 12333, 12573, 12813, 13053, 13309, 13565,
	13821, 14093, 14365, 14637, 14925, 15213, 15502, 15806,
	16110, 16414, 16734, 17054, 17390, 17726, 18062, 18414,
	18766, 19134, 19502, 19886, 20270, 20670, 21070, 21486,
	21902, 22334, 22766, 23214, 23662, 24126, 24590, 25070,
	25551, 26047, 26559, 27071, 27599, 28143, 28687, 29247,
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// AcQuant looks up the AC quantizer step for qindex+delta at the given bit
// depth (8, 10 or 12), clamping the combined index into [0, MaxQ].
func AcQuant(qindex, delta, bitDepth int) int {
	idx := clampInt(qindex+delta, 0, MaxQ)
	switch bitDepth {
	case 10:
		return int(acQLookup10[idx])
	case 12:
		return int(acQLookup12[idx])
	default:
		return int(acQLookup8[idx])
	}
}

// scaleForBitDepth returns the qindex->q scale factor used by
// ConvertQindexToQ, 4.0/16.0/64.0 for bit depths 8/10/12.
func scaleForBitDepth(bitDepth int) float64 {
	switch bitDepth {
	case 10:
		return 16.0
	case 12:
		return 64.0
	default:
		return 4.0
	}
}

// ConvertQindexToQ returns the floating-point "q" value libvpx/libaom use
// internally to compare qindex-derived quantities, equal to
// AcQuant(qindex, 0, bitDepth) scaled down by the bit-depth factor.
func ConvertQindexToQ(qindex, bitDepth int) float64 {
	return float64(AcQuant(qindex, 0, bitDepth)) / scaleForBitDepth(bitDepth)
}
