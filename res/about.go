package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `An audio-reactive visualizer built with Go and Fyne.

**Modes:**
- Waveform, Frequency and Circular bars
- Particles with trails
- A 3D scene orbiting a pulsing sphere

**Keys:** Space toggles playback, 1-5 switch modes.

Colors follow the track's album art, a custom palette or the built-in spectrum.
`
