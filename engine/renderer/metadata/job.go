package metadata

/** @brief Runs the job. The result is passed to OnComplete or OnFailure. */
type JobStart func(params interface{}) (interface{}, error)

/** @brief Invoked with the job result when OnStart succeeded. */
type JobOnComplete func(result interface{})

/** @brief Invoked with the error returned by OnStart. */
type JobOnFailure func(err error)

/** @brief Describes a type of job */
type JobType int

const (
	/**
	 * @brief A general job that does not have any specific thread requirements.
	 * This means it matters little which job thread this job runs on.
	 */
	JOB_TYPE_GENERAL JobType = 0x02
	/**
	 * @brief A resource loading job, such as decoding an image from disk or memory.
	 */
	JOB_TYPE_RESOURCE_LOAD JobType = 0x04
)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief The type of job. */
	JobType JobType
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when OnStart succeeds. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when OnStart fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Invoked after OnComplete/OnFailure, whatever the outcome. Optional. */
	OnCompletionCallback func()
}
