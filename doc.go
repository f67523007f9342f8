/*
go-trafficwatch turns per frame vehicle, person and license plate detections
from a traffic camera into tracked vehicles with estimated speeds, rule
violations and plate sighting records.

Detection and OCR are performed by external collaborators supplied to the
Engine.  Each call to ProcessFrame runs the collaborators for one frame,
joins their results, updates the vehicle tracks, estimates speeds, evaluates
the violation rules, associates plate readings with tracks and emits records
to the configured sinks.

See the monitor command in the example subdirectory for usage with a
recorded detection replay.
*/
package trafficwatch
