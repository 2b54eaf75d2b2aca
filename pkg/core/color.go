package core

// Colors travel through the renderer as CIE XYZ tristimulus values stored in
// a Vec3. Linear sRGB (D65) is the interchange space for user supplied
// reflectances and environment maps.

// RGBToXYZ converts linear sRGB to CIE XYZ
func RGBToXYZ(rgb Vec3) Vec3 {
	return Vec3{
		X: 0.4124564*rgb.X + 0.3575761*rgb.Y + 0.1804375*rgb.Z,
		Y: 0.2126729*rgb.X + 0.7151522*rgb.Y + 0.0721750*rgb.Z,
		Z: 0.0193339*rgb.X + 0.1191920*rgb.Y + 0.9503041*rgb.Z,
	}
}

// XYZToRGB converts CIE XYZ to linear sRGB
func XYZToRGB(xyz Vec3) Vec3 {
	return Vec3{
		X: 3.2404542*xyz.X - 1.5371385*xyz.Y - 0.4985314*xyz.Z,
		Y: -0.9692660*xyz.X + 1.8760108*xyz.Y + 0.0415560*xyz.Z,
		Z: 0.0556434*xyz.X - 0.2040259*xyz.Y + 1.0572252*xyz.Z,
	}
}

// Luminance returns the Y component of an XYZ color
func Luminance(xyz Vec3) float64 {
	return xyz.Y
}
