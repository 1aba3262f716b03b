package firestore

var PlanSteps = planSteps
