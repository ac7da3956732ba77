// Package grid holds the coordinate model behind the grid editor.
//
// Three spaces are involved. Widget space is the pixel space of the
// display widget; the image is scaled to fit it while keeping its aspect
// ratio and centered, so it occupies a letterboxed Viewport. Normalized
// space runs 0..1 across that viewport and is where guide lines live.
// Source space is the pixel space of the original image, reached from the
// display thumbnail with independent horizontal and vertical Scale factors.
//
// Drawing and hit-testing go through the same Viewport so a line is always
// grabbed where it is drawn.
package grid
